package pricing

import (
	"time"

	"motorent/internal/models"
)

// Total computes the rental charge for the [start, end) period in currency
// minor units. dailyRate is the vehicle's per-day rate, also in minor units.
//
// daily mode charges whole days with a floor of one day: a rental shorter
// than 24h still pays for a full day. hourly mode charges whole hours at
// 1/24 of the daily rate; the multiplication happens before the division so
// rates that do not divide evenly by 24 are not truncated to zero per hour.
//
// The function is pure and performs no validation: callers must reject
// end <= start before calling (the result for such inputs is unspecified).
func Total(start, end time.Time, mode models.RateMode, dailyRate int64) int64 {
	switch mode {
	case models.RateHourly:
		hours := int64(end.Sub(start) / time.Hour)
		return hours * dailyRate / 24
	default:
		days := int64(end.Sub(start) / (24 * time.Hour))
		if days < 1 {
			days = 1
		}
		return days * dailyRate
	}
}

// WholeHours returns the number of whole hours between start and end.
func WholeHours(start, end time.Time) int64 {
	return int64(end.Sub(start) / time.Hour)
}

// WholeDays returns the number of whole days between start and end.
func WholeDays(start, end time.Time) int64 {
	return int64(end.Sub(start) / (24 * time.Hour))
}
