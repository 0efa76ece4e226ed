package services

import (
	"errors"
	"math"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// ErrNoCandidateCourier is returned when no courier is eligible for an
// order: none are idle, or every idle courier already declined or let an
// offer expire for this order. It is surfaced to the dispatcher as a
// manual-intervention alert, never as a fatal failure.
var ErrNoCandidateCourier = errors.New("no candidate courier")

// CandidateSelector is a domain service that picks the courier an offer
// should go to next.
//
// Selection policy:
//   - Only idle couriers are considered.
//   - Couriers in the exclusion set (those who already rejected or expired
//     an offer for this order) are skipped; an order is never re-offered
//     to a courier who passed.
//   - Candidates are ranked by great-circle distance to the pickup point
//     ascending.
//   - Ties break on the earliest availability change: the courier idle the
//     longest wins (fairness).
type CandidateSelector struct{}

// NewCandidateSelector creates a CandidateSelector.
func NewCandidateSelector() CandidateSelector {
	return CandidateSelector{}
}

// Select returns the best candidate for the order among couriers, skipping
// the excluded IDs. Returns ErrNoCandidateCourier when nobody qualifies.
func (s CandidateSelector) Select(
	o *order.Order,
	couriers []*courier.Courier,
	excluded []kernel.UUID,
) (*courier.Courier, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	excludedSet := make(map[kernel.UUID]struct{}, len(excluded))
	for _, id := range excluded {
		excludedSet[id] = struct{}{}
	}

	var (
		best     *courier.Courier
		bestDist = math.MaxFloat64
	)

	for _, c := range couriers {
		if err := c.Validate(); err != nil {
			return nil, err
		}

		if !c.IsAvailableForOffers() {
			continue
		}
		if _, passed := excludedSet[c.ID()]; passed {
			continue
		}

		dist := c.Location().DistanceTo(o.Pickup())
		switch {
		case dist < bestDist:
			bestDist = dist
			best = c
		case dist == bestDist && best != nil &&
			c.AvailabilityChangedAt().Before(best.AvailabilityChangedAt()):
			best = c
		}
	}

	if best == nil {
		return nil, ErrNoCandidateCourier
	}

	return best, nil
}
