package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlot(t *testing.T) {
	slot, ok := ParseSlot(" Morning ")
	require.True(t, ok)
	assert.Equal(t, SlotMorning, slot)
	assert.Equal(t, RateClassMorning, slot.Class())

	for _, s := range []Slot{SlotAfternoon, SlotEvening} {
		assert.Equal(t, RateClassStandard, s.Class(), s)
		assert.NotEmpty(t, s.Label())
	}

	_, ok = ParseSlot("late morning")
	assert.False(t, ok, "labels that merely contain a slot name are not slots")
	assert.False(t, Slot("night").Valid())
}

func TestDecodeSettingsMergesOverDefaults(t *testing.T) {
	s, err := DecodeSettings([]byte(`{"capacity_per_shift": 50, "blocked_dates": null}`))
	require.NoError(t, err)

	assert.Equal(t, 50, s.CapacityPerShift)
	assert.Equal(t, DefaultSettings().Rates, s.Rates)
	assert.Equal(t, DefaultSettings().Tiers, s.Tiers)
	assert.NotNil(t, s.BlockedDates)

	_, err = DecodeSettings([]byte(`{`))
	assert.Error(t, err)
}

func TestDecodeSettingsNormalisesNullCollections(t *testing.T) {
	s, err := DecodeSettings([]byte(`{"rates": null, "tiers": {"standard": null}}`))
	require.NoError(t, err)

	assert.NotNil(t, s.Rates)
	assert.NotNil(t, s.Tiers[RateClassStandard])
	assert.Len(t, s.Tiers[RateClassMorning], 2)

	decoded, err := json.Marshal(s)
	require.NoError(t, err)
	cloned, err := json.Marshal(s.Clone())
	require.NoError(t, err)
	assert.Equal(t, string(decoded), string(cloned))
	assert.Contains(t, string(decoded), `"standard":[]`)
}

func TestSettingsCloneIsDeep(t *testing.T) {
	orig := DefaultSettings()
	orig.BlockedDates = []string{"2026-12-25"}

	c := orig.Clone()
	c.Rates[RateClassMorning] = Rate{Adult: 1}
	c.Tiers[RateClassMorning][0].Percent = 99
	c.BlockedDates[0] = "2027-01-01"

	assert.Equal(t, int64(600), orig.Rates[RateClassMorning].Adult)
	assert.Equal(t, 20, orig.Tiers[RateClassMorning][0].Percent)
	assert.Equal(t, "2026-12-25", orig.BlockedDates[0])
}

func TestSettingsHelpers(t *testing.T) {
	s := DefaultSettings()
	s.BlockedDates = []string{"2026-12-25"}
	s.Notification.AccessToken = "live-token"

	assert.True(t, s.IsBlocked("2026-12-25"))
	assert.False(t, s.IsBlocked("2026-12-26"))
	assert.Equal(t, Rate{Adult: 700, Kid: 500}, s.RateFor(SlotEvening))
	assert.Len(t, s.TiersFor(SlotMorning), 2)
	assert.Equal(t, "***", s.Redacted().Notification.AccessToken)
	assert.Equal(t, "live-token", s.Notification.AccessToken)
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())

	cases := map[string]func(*Settings){
		"negative capacity": func(s *Settings) { s.CapacityPerShift = -1 },
		"negative rate":     func(s *Settings) { s.Rates[RateClassStandard] = Rate{Adult: -5} },
		"percent over 100":  func(s *Settings) { s.Tiers[RateClassMorning][0].Percent = 120 },
		"bad blocked date":  func(s *Settings) { s.BlockedDates = []string{"25/12/2026"} },
		"negative deposit":  func(s *Settings) { s.LockerRates.LockerDeposit = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := DefaultSettings()
			mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}
}

func TestBookingGuestsAndCostumeTotal(t *testing.T) {
	assert.Equal(t, 5, Booking{Adults: 2, Kids: 3}.Guests())
	assert.Equal(t, 3, CostumeCounts{Adult: 1, Kid: 2}.Total())
}
