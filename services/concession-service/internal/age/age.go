// Package age computes an applicant's age in whole years and months.
package age

import "time"

// Calculate returns the completed years and remaining completed months
// between dob and now. A dob after now yields zero.
func Calculate(dob, now time.Time) (years, months int) {
	if dob.After(now) {
		return 0, 0
	}

	years = now.Year() - dob.Year()
	months = int(now.Month()) - int(dob.Month())
	if now.Day() < dob.Day() {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}
	return years, months
}
