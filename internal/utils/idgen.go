package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

var ErrBadID = errors.New("malformed id")

// NextFromExisting returns the id following the highest numeric suffix among
// ids carrying prefix. Ids with other prefixes or non-numeric suffixes are
// ignored. Suffixes are zero-padded to three digits.
func NextFromExisting(ids []string, prefix string) string {
	max := 0
	for _, id := range ids {
		n, err := ParseID(id, prefix)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max+1)
}

// ParseID extracts the numeric suffix of a prefixed id such as "D014".
func ParseID(id, prefix string) (int, error) {
	if !strings.HasPrefix(id, prefix) {
		return 0, fmt.Errorf("%w: %q lacks prefix %q", ErrBadID, id, prefix)
	}
	suffix := id[len(prefix):]
	if suffix == "" {
		return 0, fmt.Errorf("%w: %q has no number", ErrBadID, id)
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrBadID, id)
		}
	}
	return strconv.Atoi(suffix)
}

// NextID scans the ids already stored for model and returns the next one.
// Rows flagged as deleted are included so ids are never reused.
// Callers creating rows concurrently must hold a lock for prefix.
func NextID(tx *gorm.DB, model interface{}, prefix string) (string, error) {
	var ids []string
	if err := tx.Model(model).Where("id LIKE ?", prefix+"%").Pluck("id", &ids).Error; err != nil {
		return "", fmt.Errorf("scan ids for %s: %w", prefix, err)
	}
	return NextFromExisting(ids, prefix), nil
}
