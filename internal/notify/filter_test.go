package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kombinator/garant/internal/entity"
	"github.com/kombinator/garant/internal/warranty"
)

var now = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

func mk(offset int) *entity.Receipt {
	return &entity.Receipt{
		ID:                 uuid.New(),
		WarrantyExpiration: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset),
	}
}

func TestExpiringSoonExcludesExpiredAndToday(t *testing.T) {
	input := []*entity.Receipt{mk(-3), mk(0), mk(1), mk(30), mk(31)}

	got := ExpiringSoon(input, now, 30)

	assert.Len(t, got, 2)
	for _, r := range got {
		diff := warranty.DaysUntil(r.WarrantyExpiration, now)
		assert.Greater(t, diff, 0)
		assert.LessOrEqual(t, diff, 30)
	}
}

func TestExpiringSoonSortedByProximity(t *testing.T) {
	input := []*entity.Receipt{mk(25), mk(2), mk(14), mk(7)}

	got := ExpiringSoon(input, now, 30)

	assert.Len(t, got, 4)
	prev := 0
	for _, r := range got {
		diff := warranty.DaysUntil(r.WarrantyExpiration, now)
		assert.GreaterOrEqual(t, diff, prev)
		prev = diff
	}
	assert.Equal(t, 2, warranty.DaysUntil(got[0].WarrantyExpiration, now))
	assert.Equal(t, 25, warranty.DaysUntil(got[3].WarrantyExpiration, now))
}

func TestExpiringSoonStableForEqualDistance(t *testing.T) {
	a, b := mk(5), mk(5)
	got := ExpiringSoon([]*entity.Receipt{a, b}, now, 30)

	assert.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)
}

func TestExpiringSoonDefaultHorizon(t *testing.T) {
	input := []*entity.Receipt{mk(10), mk(45)}

	got := ExpiringSoon(input, now, 0)

	assert.Len(t, got, 1)
	assert.Equal(t, input[0].ID, got[0].ID)
}

func TestExpiringSoonEmpty(t *testing.T) {
	assert.Empty(t, ExpiringSoon(nil, now, 30))
}
