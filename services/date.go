package services

import (
	"strings"
	"time"
)

var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// ParseDate parses an ISO date (YYYY-MM-DD) or the local DD/MM/YYYY form, in UTC
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, Validation("date", "invalid date format: expected YYYY-MM-DD or DD/MM/YYYY")
}
