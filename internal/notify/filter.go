// Package notify derives the expiring-soon view used for the notification
// badge: warranties still alive but ending within the horizon.
package notify

import (
	"sort"
	"time"

	"github.com/kombinator/garant/internal/entity"
	"github.com/kombinator/garant/internal/warranty"
)

// ExpiringSoon returns the receipts whose warranty ends strictly after today
// and within horizonDays, soonest first. Already-expired receipts are not
// notifications; they surface in the expired dashboard group instead.
// horizonDays <= 0 falls back to warranty.HorizonDays.
func ExpiringSoon(receipts []*entity.Receipt, now time.Time, horizonDays int) []*entity.Receipt {
	if horizonDays <= 0 {
		horizonDays = warranty.HorizonDays
	}

	var out []*entity.Receipt
	for _, r := range receipts {
		diff := warranty.DaysUntil(r.WarrantyExpiration, now)
		if diff > 0 && diff <= horizonDays {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return warranty.DaysUntil(out[i].WarrantyExpiration, now) <
			warranty.DaysUntil(out[j].WarrantyExpiration, now)
	})
	return out
}
