package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/park-ledger/internal/model"
)

const visitDate = "2026-11-02"

func scenarioSettings() model.Settings {
	s := model.DefaultSettings()
	s.Rates[model.RateClassMorning] = model.Rate{Adult: 600, Kid: 400}
	s.Tiers[model.RateClassMorning] = []model.Tier{
		{Threshold: 100, Percent: 20},
		{Threshold: 200, Percent: 10},
	}
	return s
}

func confirmed(date string, slot model.Slot, adults, kids int) model.Booking {
	return model.Booking{
		ID:        "BK100001",
		VisitDate: date,
		Slot:      slot,
		Adults:    adults,
		Kids:      kids,
		Status:    model.BookingStatusConfirmed,
		CreatedAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPriceScenarios(t *testing.T) {
	req := Request{Slot: model.SlotMorning, VisitDate: visitDate, Adults: 2, Kids: 1}

	tests := []struct {
		name         string
		occupancy    int
		wantPercent  int
		wantDiscount int64
		wantTotal    int64
	}{
		{name: "empty slot gets the top tier", occupancy: 0, wantPercent: 20, wantDiscount: 320, wantTotal: 1280},
		{name: "half full slot gets the second tier", occupancy: 150, wantPercent: 10, wantDiscount: 160, wantTotal: 1440},
		{name: "slot past every threshold pays standard", occupancy: 250, wantPercent: 0, wantDiscount: 0, wantTotal: 1600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ledger []model.Booking
			if tt.occupancy > 0 {
				ledger = append(ledger, confirmed(visitDate, model.SlotMorning, tt.occupancy, 0))
			}

			q := Price(req, ledger, scenarioSettings())

			assert.Equal(t, int64(1600), q.Subtotal)
			assert.Equal(t, tt.occupancy, q.Occupancy)
			assert.Equal(t, tt.wantPercent, q.DiscountPercent)
			assert.Equal(t, tt.wantDiscount, q.Discount)
			assert.Equal(t, tt.wantTotal, q.Total)
		})
	}
}

func TestPriceUsesStandardRatesOutsideMorning(t *testing.T) {
	s := scenarioSettings()
	s.Rates[model.RateClassStandard] = model.Rate{Adult: 700, Kid: 500}
	s.Tiers[model.RateClassStandard] = nil

	q := Price(Request{Slot: model.SlotEvening, VisitDate: visitDate, Adults: 1, Kids: 2}, nil, s)

	assert.Equal(t, int64(1700), q.Subtotal)
	assert.Equal(t, 0, q.DiscountPercent)
	assert.Equal(t, StandardLabel, q.Label)
	assert.Equal(t, int64(1700), q.Total)
}

func TestPriceIsIdempotent(t *testing.T) {
	ledger := []model.Booking{
		confirmed(visitDate, model.SlotMorning, 40, 12),
		confirmed(visitDate, model.SlotEvening, 3, 0),
	}
	s := scenarioSettings()
	req := Request{Slot: model.SlotMorning, VisitDate: visitDate, Adults: 3, Kids: 2}

	first := Price(req, ledger, s)
	second := Price(req, ledger, s)

	assert.Equal(t, first, second)
}

func TestPriceFallsBackToPercentLabel(t *testing.T) {
	q := Price(Request{Slot: model.SlotMorning, VisitDate: visitDate, Adults: 1}, nil, scenarioSettings())
	assert.Equal(t, "20% off", q.Label)
}

func TestPriceReportsRemainingCapacity(t *testing.T) {
	s := scenarioSettings()
	s.CapacityPerShift = 120
	ledger := []model.Booking{confirmed(visitDate, model.SlotMorning, 100, 5)}

	q := Price(Request{Slot: model.SlotMorning, VisitDate: visitDate, Adults: 1}, ledger, s)
	assert.Equal(t, 15, q.Remaining)

	ledger = append(ledger, confirmed(visitDate, model.SlotMorning, 30, 0))
	q = Price(Request{Slot: model.SlotMorning, VisitDate: visitDate, Adults: 1}, ledger, s)
	assert.Equal(t, 0, q.Remaining)
}

func TestDiscountArithmetic(t *testing.T) {
	for subtotal := int64(0); subtotal <= 5000; subtotal += 37 {
		for _, percent := range []int{0, 5, 10, 15, 20, 33, 100} {
			d := Discount(subtotal, percent)
			require.GreaterOrEqual(t, d, int64(0))
			require.LessOrEqual(t, d, subtotal)
			exact := float64(subtotal) * float64(percent) / 100
			assert.InDelta(t, exact, float64(d), 0.5)
		}
	}
	assert.Equal(t, int64(1), Discount(5, 10), "0.5 rounds away from zero")
}
