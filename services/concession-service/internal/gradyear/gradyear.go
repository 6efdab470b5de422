// Package gradyear maps academic-year labels (FE, SE, TE, BE) to the
// graduation year of a student currently in that year.
package gradyear

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrUnknownLabel = errors.New("unknown graduation year label")

type Entry struct {
	ID       int    `json:"id"`
	Label    string `json:"year"`
	GradYear string `json:"gradYear"`
}

var labels = []string{"FE", "SE", "TE", "BE"}

// firstYearGraduation is the graduation year of a first-year student at now.
// The academic year turns over in July.
func firstYearGraduation(now time.Time) int {
	if now.Month() < time.July {
		return now.Year() + 3
	}
	return now.Year() + 4
}

// Table returns the label lookup table as of now.
func Table(now time.Time) []Entry {
	fe := firstYearGraduation(now)
	entries := make([]Entry, len(labels))
	for i, label := range labels {
		entries[i] = Entry{
			ID:       i + 1,
			Label:    label,
			GradYear: strconv.Itoa(fe - i),
		}
	}
	return entries
}

// Resolve returns the graduation year for label as of now.
func Resolve(label string, now time.Time) (string, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, e := range Table(now) {
		if e.Label == label {
			return e.GradYear, nil
		}
	}
	return "", ErrUnknownLabel
}

// Labels lists the accepted labels in year order.
func Labels() []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}
