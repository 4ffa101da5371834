// Package warranty classifies receipts by proximity to their warranty
// expiration date. Everything here is pure date arithmetic; status is a
// function of (expiration date, now) and is recomputed on every read.
package warranty

import (
	"fmt"
	"time"

	"github.com/kombinator/garant/constants"
	"github.com/kombinator/garant/internal/entity"
)

// HorizonDays is the lookahead window: a receipt whose warranty ends within
// this many days counts as expiring.
const HorizonDays = 30

// DaysUntil returns the whole-day difference between the expiration date and
// now. Both instants are truncated to their UTC calendar date first, so
// time-of-day can never flip the same-day boundary: an expiration later today
// is always exactly 0 days away.
func DaysUntil(expiry, now time.Time) int {
	return int(dateOf(expiry).Sub(dateOf(now)).Hours() / 24)
}

// Classify buckets an expiration date relative to now.
// diff < 0 is expired, 0..HorizonDays inclusive is expiring, beyond is active.
func Classify(expiry, now time.Time) constants.WarrantyStatus {
	diff := DaysUntil(expiry, now)
	switch {
	case diff < 0:
		return constants.StatusExpired
	case diff <= HorizonDays:
		return constants.StatusExpiring
	default:
		return constants.StatusActive
	}
}

// Label renders the remaining/elapsed time as the user-facing string.
func Label(expiry, now time.Time) string {
	diff := DaysUntil(expiry, now)
	switch {
	case diff == 0:
		return "Ističe danas"
	case diff < 0:
		return fmt.Sprintf("Isteklo prije %d %s", -diff, dayWord(-diff))
	default:
		return fmt.Sprintf("Ističe za %d %s", diff, dayWord(diff))
	}
}

func dayWord(n int) string {
	if n == 1 {
		return "dan"
	}
	return "dana"
}

// Partition groups receipts into expired, expiring and active slices,
// preserving the input order within each group. Every receipt lands in
// exactly one group.
func Partition(receipts []*entity.Receipt, now time.Time) (expired, expiring, active []*entity.Receipt) {
	for _, r := range receipts {
		switch Classify(r.WarrantyExpiration, now) {
		case constants.StatusExpired:
			expired = append(expired, r)
		case constants.StatusExpiring:
			expiring = append(expiring, r)
		default:
			active = append(active, r)
		}
	}
	return expired, expiring, active
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
