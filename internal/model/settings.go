package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultSyncID is the remote partition every installation uses until an
// operator configures another one, so installations pointing at the same
// backend observe the same ledger.
const DefaultSyncID = "park-ledger-main"

// Rate is the per-head price for one rate class, in whole rupees.
type Rate struct {
	Adult int64 `json:"adult"`
	Kid   int64 `json:"kid"`
}

// Tier is an occupancy based discount: it applies while the slot's
// confirmed occupancy is below Threshold.
type Tier struct {
	Threshold int    `json:"threshold"`
	Percent   int    `json:"percent"`
	Label     string `json:"label,omitempty"`
}

// NotificationConfig carries the template messaging credentials used to
// deliver booking receipts.
type NotificationConfig struct {
	TemplateName    string `json:"template_name"`
	LanguageCode    string `json:"language_code"`
	AccessToken     string `json:"access_token"`
	PhoneNumberID   string `json:"phone_number_id"`
	ParamCount      int    `json:"param_count"`
	NormalizeLocale bool   `json:"normalize_locale"`
}

// Configured reports whether enough credentials are present to send.
func (n NotificationConfig) Configured() bool {
	return n.TemplateName != "" && n.AccessToken != "" && n.PhoneNumberID != ""
}

// LockerRates prices the locker/costume desk.
type LockerRates struct {
	LockerRent     int64 `json:"locker_rent"`
	LockerDeposit  int64 `json:"locker_deposit"`
	CostumeRent    int64 `json:"costume_rent"`
	CostumeDeposit int64 `json:"costume_deposit"`
}

// Settings is the admin controlled configuration.  It always travels as a
// whole object: persisted, pushed and pulled wholesale, and decoded over
// DefaultSettings so that documents missing a key keep the default.
type Settings struct {
	Rates            map[RateClass]Rate   `json:"rates"`
	CapacityPerShift int                  `json:"capacity_per_shift"`
	Tiers            map[RateClass][]Tier `json:"tiers"`
	BlockedDates     []string             `json:"blocked_dates"`
	Notification     NotificationConfig   `json:"notification"`
	LockerRates      LockerRates          `json:"locker_rates"`
}

// DefaultSettings returns the compiled-in defaults used at first run.
func DefaultSettings() Settings {
	return Settings{
		Rates: map[RateClass]Rate{
			RateClassMorning:  {Adult: 600, Kid: 400},
			RateClassStandard: {Adult: 700, Kid: 500},
		},
		CapacityPerShift: 300,
		Tiers: map[RateClass][]Tier{
			RateClassMorning: {
				{Threshold: 100, Percent: 20, Label: "Early bird 20% off"},
				{Threshold: 200, Percent: 10, Label: "Early bird 10% off"},
			},
			RateClassStandard: {
				{Threshold: 100, Percent: 15, Label: "Early bird 15% off"},
				{Threshold: 200, Percent: 5, Label: "Early bird 5% off"},
			},
		},
		BlockedDates: []string{},
		Notification: NotificationConfig{
			TemplateName:    "booking_confirmation",
			LanguageCode:    "en_US",
			ParamCount:      5,
			NormalizeLocale: true,
		},
		LockerRates: LockerRates{
			LockerRent:     100,
			LockerDeposit:  200,
			CostumeRent:    150,
			CostumeDeposit: 100,
		},
	}
}

// DecodeSettings merges a stored document over the defaults.  Keys absent
// from raw keep their default value.
func DecodeSettings(raw []byte) (Settings, error) {
	s := DefaultSettings()
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultSettings(), err
	}
	return s.Clone(), nil
}

// IsBlocked reports whether date is fully blocked for bookings.
func (s Settings) IsBlocked(date string) bool {
	for _, d := range s.BlockedDates {
		if d == date {
			return true
		}
	}
	return false
}

// RateFor returns the per-head rate for a slot's class.
func (s Settings) RateFor(slot Slot) Rate { return s.Rates[slot.Class()] }

// TiersFor returns the tier table for a slot's class.
func (s Settings) TiersFor(slot Slot) []Tier { return s.Tiers[slot.Class()] }

// Clone returns a deep copy so callers can mutate it freely.  Nil maps and
// slices come back empty, so two equal settings always encode the same way
// whether they were built in code or decoded from a document holding null.
func (s Settings) Clone() Settings {
	out := s
	out.Rates = make(map[RateClass]Rate, len(s.Rates))
	for k, v := range s.Rates {
		out.Rates[k] = v
	}
	out.Tiers = make(map[RateClass][]Tier, len(s.Tiers))
	for k, v := range s.Tiers {
		out.Tiers[k] = append(make([]Tier, 0, len(v)), v...)
	}
	out.BlockedDates = append([]string{}, s.BlockedDates...)
	return out
}

// Redacted hides credentials for public read endpoints.
func (s Settings) Redacted() Settings {
	out := s.Clone()
	if out.Notification.AccessToken != "" {
		out.Notification.AccessToken = "***"
	}
	return out
}

// ErrInvalidSettings wraps every Validate failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Validate checks the values an admin can break by hand.
func (s Settings) Validate() error {
	if s.CapacityPerShift < 0 {
		return fmt.Errorf("%w: capacity_per_shift cannot be negative", ErrInvalidSettings)
	}
	for class, r := range s.Rates {
		if r.Adult < 0 || r.Kid < 0 {
			return fmt.Errorf("%w: negative rate for %s", ErrInvalidSettings, class)
		}
	}
	for class, tiers := range s.Tiers {
		for _, t := range tiers {
			if t.Percent < 0 || t.Percent > 100 {
				return fmt.Errorf("%w: %s tier percent %d out of range", ErrInvalidSettings, class, t.Percent)
			}
			if t.Threshold < 0 {
				return fmt.Errorf("%w: %s tier threshold cannot be negative", ErrInvalidSettings, class)
			}
		}
	}
	for _, d := range s.BlockedDates {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return fmt.Errorf("%w: blocked date %q is not YYYY-MM-DD", ErrInvalidSettings, d)
		}
	}
	lr := s.LockerRates
	if lr.LockerRent < 0 || lr.LockerDeposit < 0 || lr.CostumeRent < 0 || lr.CostumeDeposit < 0 {
		return fmt.Errorf("%w: locker rates cannot be negative", ErrInvalidSettings)
	}
	return nil
}
