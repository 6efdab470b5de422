package age_test

import (
	"testing"
	"time"

	"railway/services/concession-service/internal/age"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name       string
		dob, now   time.Time
		years, mon int
	}{
		{"birthday today", date(2003, time.June, 1), date(2024, time.June, 1), 21, 0},
		{"day before birthday", date(2003, time.June, 1), date(2024, time.May, 31), 20, 11},
		{"mid year", date(2003, time.June, 15), date(2024, time.October, 20), 21, 4},
		{"month not complete", date(2003, time.June, 15), date(2024, time.October, 14), 21, 3},
		{"january rollover", date(2004, time.December, 20), date(2025, time.January, 5), 20, 0},
		{"born now", date(2024, time.June, 1), date(2024, time.June, 1), 0, 0},
		{"future dob", date(2030, time.January, 1), date(2024, time.June, 1), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			years, months := age.Calculate(tt.dob, tt.now)
			assert.Equal(t, tt.years, years)
			assert.Equal(t, tt.mon, months)
		})
	}
}
