package jobs

import (
	"fmt"
	"strconv"
	"strings"
)

const idPrefix = "job_"

// FormatJobID renders the external form of a job primary key, e.g. "job_7".
func FormatJobID(pk int64) string {
	return fmt.Sprintf("%s%d", idPrefix, pk)
}

// ParseJobID extracts the primary key from an external job id. Any id that
// does not match job_<decimal> maps to ErrNotFound.
func ParseJobID(id string) (int64, error) {
	suffix, ok := strings.CutPrefix(id, idPrefix)
	if !ok || suffix == "" {
		return 0, ErrNotFound
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, ErrNotFound
		}
	}
	pk, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		return 0, ErrNotFound
	}
	return pk, nil
}
