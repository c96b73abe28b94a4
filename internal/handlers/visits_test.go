package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clinic-backend/internal/cache"
	"clinic-backend/internal/database"
	"clinic-backend/internal/models"
	"clinic-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type fixedCounter struct {
	incrs int
	today int64
	miss  bool
}

func (f *fixedCounter) Incr(context.Context, string) error {
	f.incrs++
	return nil
}

func (f *fixedCounter) Get(context.Context, string) (int64, bool, error) {
	return f.today, !f.miss, nil
}

func TestVisitStats(t *testing.T) {
	r := setupRouter(t)

	role := "patient"
	for i := 0; i < 3; i++ {
		w := doJSON(r, http.MethodPost, "/api/visits", gin.H{"page": "/dashboard", "role": role}, nil)
		expectStatus(t, w, http.StatusCreated)
	}
	expectStatus(t, doJSON(r, http.MethodPost, "/api/visits", gin.H{"page": "/"}, nil), http.StatusCreated)
	expectStatus(t, doJSON(r, http.MethodPost, "/api/visits", gin.H{}, nil), http.StatusBadRequest)

	// two days ago, inside the default window
	old := time.Now().AddDate(0, 0, -2)
	database.DB.Create(&models.UserVisit{Page: "/", VisitDate: old.Format(utils.DateLayout), VisitedAt: old.Format(utils.TimestampLayout)})
	// outside the window, only part of the total
	ancient := time.Now().AddDate(0, 0, -30)
	database.DB.Create(&models.UserVisit{Page: "/", VisitDate: ancient.Format(utils.DateLayout), VisitedAt: ancient.Format(utils.TimestampLayout)})

	w := doJSON(r, http.MethodGet, "/api/visits/stats", nil, asAdmin)
	expectStatus(t, w, http.StatusOK)
	var out struct {
		Total  int64            `json:"total"`
		Today  int64            `json:"today"`
		Days   int              `json:"days"`
		Daily  []DailyCount     `json:"daily"`
		ByRole map[string]int64 `json:"by_role"`
		Avg    float64          `json:"daily_average"`
	}
	decode(t, w, &out)

	if out.Total != 6 || out.Today != 4 {
		t.Errorf("total=%d today=%d, want 6 and 4", out.Total, out.Today)
	}
	if len(out.Daily) != 7 {
		t.Fatalf("expected 7 days, got %d", len(out.Daily))
	}
	if last := out.Daily[6]; last.Date != utils.Today() || last.Count != 4 {
		t.Errorf("unexpected last day %+v", last)
	}
	if out.Daily[4].Count != 1 || out.Daily[0].Count != 0 {
		t.Errorf("unexpected daily series %+v", out.Daily)
	}
	if out.ByRole["patient"] != 3 || out.ByRole["anonymous"] != 2 {
		t.Errorf("unexpected by_role %v", out.ByRole)
	}
	if out.Avg <= 0 {
		t.Errorf("expected a positive daily average, got %v", out.Avg)
	}

	expectStatus(t, doJSON(r, http.MethodGet, "/api/visits/stats?days=0", nil, asAdmin), http.StatusBadRequest)
	expectStatus(t, doJSON(r, http.MethodGet, "/api/visits/stats?days=91", nil, asAdmin), http.StatusBadRequest)
}

func TestVisitStats_UsesCounter(t *testing.T) {
	r := setupRouter(t)
	counter := &fixedCounter{today: 42}
	prev := cache.Visits
	cache.Visits = counter
	t.Cleanup(func() { cache.Visits = prev })

	expectStatus(t, doJSON(r, http.MethodPost, "/api/visits", gin.H{"page": "/"}, nil), http.StatusCreated)
	if counter.incrs != 1 {
		t.Errorf("expected the counter to be bumped once, got %d", counter.incrs)
	}

	w := doJSON(r, http.MethodGet, "/api/visits/stats?days=1", nil, asAdmin)
	expectStatus(t, w, http.StatusOK)
	var out struct {
		Today int64 `json:"today"`
	}
	decode(t, w, &out)
	if out.Today != 42 {
		t.Errorf("today = %d, want the counter value 42", out.Today)
	}
}

func TestHealth(t *testing.T) {
	r := setupRouter(t)
	w := doJSON(r, http.MethodGet, "/api/health", nil, nil)
	expectStatus(t, w, http.StatusOK)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}
}

func TestServeClient(t *testing.T) {
	r := setupRouter(t)
	os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<div id=app></div>"), 0o644)
	os.WriteFile(filepath.Join(staticDir, "app.js"), []byte("console.log(1)"), 0o644)

	tests := []struct {
		name string
		path string
		want int
		body string
	}{
		{"asset", "/app.js", http.StatusOK, "console.log(1)"},
		{"client route", "/patients/P001", http.StatusOK, "<div id=app></div>"},
		{"unknown api", "/api/nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, tt.path, nil, nil)
			expectStatus(t, w, tt.want)
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestVisitStats_CounterNeverHidesRows(t *testing.T) {
	tests := []struct {
		name    string
		counter *fixedCounter
	}{
		{"key missing", &fixedCounter{miss: true}},
		{"counter lagging", &fixedCounter{today: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(t)
			for i := 0; i < 3; i++ {
				expectStatus(t, doJSON(r, http.MethodPost, "/api/visits", gin.H{"page": "/"}, nil), http.StatusCreated)
			}

			prev := cache.Visits
			cache.Visits = tt.counter
			t.Cleanup(func() { cache.Visits = prev })

			w := doJSON(r, http.MethodGet, "/api/visits/stats?days=1", nil, asAdmin)
			expectStatus(t, w, http.StatusOK)
			var out struct {
				Today int64 `json:"today"`
			}
			decode(t, w, &out)
			if out.Today != 3 {
				t.Errorf("today = %d, want the 3 stored visits", out.Today)
			}
		})
	}
}
