// Package pricing computes capacity aware, tiered quotes.  Everything here
// is a pure function of its inputs: no caching, no hidden state.
package pricing

import (
	"sort"

	"github.com/iliyamo/park-ledger/internal/model"
)

// SelectTier returns the first tier, in ascending threshold order, whose
// threshold the occupancy has not yet reached.  ok is false when every
// threshold has been reached and the standard rate applies.
func SelectTier(tiers []model.Tier, occupancy int) (tier model.Tier, ok bool) {
	sorted := append([]model.Tier(nil), tiers...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Threshold < sorted[j].Threshold })
	for _, t := range sorted {
		if t.Threshold > occupancy {
			return t, true
		}
	}
	return model.Tier{}, false
}
