package service

import "time"

// AgeInMonths returns the whole months elapsed between birth and asOf, compared as
// calendar dates. The result is never negative.
func AgeInMonths(birth, asOf time.Time) int {
	by, bm, bd := birth.Date()
	ay, am, ad := asOf.Date()

	months := (ay-by)*12 + int(am-bm)
	if ad < bd {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
