package utils

import (
	"errors"
	"testing"
)

func TestNextFromExisting(t *testing.T) {
	tests := []struct {
		name   string
		ids    []string
		prefix string
		want   string
	}{
		{"empty", nil, "D", "D001"},
		{"sequential", []string{"D001", "D002"}, "D", "D003"},
		{"gap uses max", []string{"D001", "D007", "D003"}, "D", "D008"},
		{"grows past padding", []string{"A999"}, "A", "A1000"},
		{"ignores foreign prefix", []string{"P050", "D002"}, "D", "D003"},
		{"ignores junk suffix", []string{"DX12", "D00a", "D"}, "D", "D001"},
		{"two letter prefix", []string{"LT004", "L009"}, "LT", "LT005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextFromExisting(tt.ids, tt.prefix); got != tt.want {
				t.Errorf("NextFromExisting(%v, %q) = %q, want %q", tt.ids, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestNextFromExisting_StrictlyIncreasingAndUnused(t *testing.T) {
	var ids []string
	seen := map[string]bool{}
	prev := 0
	for i := 0; i < 1200; i++ {
		id := NextFromExisting(ids, "A")
		if seen[id] {
			t.Fatalf("id %s generated twice", id)
		}
		n, err := ParseID(id, "A")
		if err != nil {
			t.Fatalf("generated unparsable id %s: %v", id, err)
		}
		if n <= prev {
			t.Fatalf("id %s not greater than previous %d", id, prev)
		}
		prev = n
		seen[id] = true
		ids = append(ids, id)
	}
}

func TestParseID(t *testing.T) {
	if n, err := ParseID("P014", "P"); err != nil || n != 14 {
		t.Fatalf("ParseID(P014) = %d, %v", n, err)
	}
	if _, err := ParseID("X1", "P"); !errors.Is(err, ErrBadID) {
		t.Fatalf("expected ErrBadID, got %v", err)
	}
}

func TestValidTime(t *testing.T) {
	for _, s := range []string{"00:00", "09:30", "23:59"} {
		if !ValidTime(s) {
			t.Errorf("expected %q valid", s)
		}
	}
	for _, s := range []string{"9:30", "24:00", "12:60", "12-30", ""} {
		if ValidTime(s) {
			t.Errorf("expected %q invalid", s)
		}
	}
}

func TestValidDate(t *testing.T) {
	if !ValidDate("2026-02-28") {
		t.Error("expected valid date")
	}
	if ValidDate("2026-02-30") || ValidDate("28/02/2026") {
		t.Error("expected invalid date")
	}
}

func TestCountStats(t *testing.T) {
	avg, sd := CountStats([]int64{2, 4, 4, 4, 5, 5, 7, 9})
	if avg != 5 {
		t.Errorf("avg = %v, want 5", avg)
	}
	if sd != 2.1381 {
		t.Errorf("stddev = %v, want 2.1381", sd)
	}
	if avg, sd := CountStats([]int64{3}); avg != 3 || sd != 0 {
		t.Errorf("single value stats = %v, %v", avg, sd)
	}
	if avg, sd := CountStats(nil); avg != 0 || sd != 0 {
		t.Errorf("empty stats = %v, %v", avg, sd)
	}
}

func TestPasswordHashing(t *testing.T) {
	if _, err := HashPassword("123"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Error("expected password to match")
	}
	if CheckPassword("wrong", hash) {
		t.Error("expected mismatch")
	}
}
