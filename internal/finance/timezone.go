package finance

import (
	"sync"
	"time"
)

var (
	easternOnce sync.Once
	eastern     *time.Location
)

// getEasternTime returns the exchange time zone the provider keys its daily
// rows by, falling back to fixed EST if tzdata is missing.
func getEasternTime() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.FixedZone("EST", -5*3600)
		}
		eastern = loc
	})
	return eastern
}

// tradingDate formats t as a calendar date in exchange time.
func tradingDate(t time.Time) string {
	return t.In(getEasternTime()).Format("2006-01-02")
}
