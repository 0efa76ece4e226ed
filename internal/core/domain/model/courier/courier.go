package courier

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrNameIsRequired is returned when attempting to create a courier
	// without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")

	// ErrCourierIsNotConstructed is returned when using an improperly
	// initialized Courier.
	ErrCourierIsNotConstructed = errors.New("Courier must be created via NewCourier or RestoreCourier constructor")

	// ErrStaleLocation indicates a location ping older than the last
	// accepted one for this courier. The event bus delivers at least once
	// with no ordering guarantee, so out-of-order pings are expected and
	// simply discarded.
	ErrStaleLocation = errors.New("stale location ping")

	// ErrCourierNotIdle is returned when a courier that is busy or offline
	// is asked to take an order.
	ErrCourierNotIdle = errors.New("courier is not idle")

	// ErrNoActiveOrder is returned when releasing a courier that has no
	// active order.
	ErrNoActiveOrder = errors.New("courier has no active order")
)

// Courier is the aggregate root representing a delivery courier.
//
// Key responsibilities:
//   - Tracking availability (idle, busy, offline) and the active order
//   - Recording location pings with a monotonic-timestamp guard
//   - Remembering when availability last changed, which feeds the dispatch
//     fairness tie-break
//
// Invariants:
//   - The active order is set iff availability is busy.
//   - Accepted location timestamps are strictly increasing.
//
// A courier executes at most one order at a time; batched deliveries are
// deliberately not modeled.
type Courier struct {
	id   kernel.UUID
	name string

	availability Availability
	// availabilityChangedAt orders equally-distant candidates: the courier
	// idle the longest wins.
	availabilityChangedAt time.Time

	location   kernel.GeoPoint
	locationAt time.Time

	activeOrderID *kernel.UUID

	version int64
	guard   guard.ConstructorGuard
}

// NewCourier creates an idle courier at a starting location.
//
// Parameters:
//   - id: unique identifier (must be a valid UUID)
//   - name: human-readable name (must be non-empty)
//   - location: current position (must be a valid geo point)
//   - now: timestamp recorded for both the location and the availability
//     change
func NewCourier(id kernel.UUID, name string, location kernel.GeoPoint, now time.Time) (*Courier, error) {
	c := &Courier{
		availability: Idle,
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setName(name),
		c.setLocation(location, now),
	); err != nil {
		return nil, err
	}

	c.availabilityChangedAt = now
	return c, nil
}

// RestoreCourier reconstructs a Courier aggregate from persistent storage,
// preserving availability, active order, location, and version.
func RestoreCourier(
	id kernel.UUID,
	name string,
	availability Availability,
	availabilityChangedAt time.Time,
	location kernel.GeoPoint,
	locationAt time.Time,
	activeOrderID *kernel.UUID,
	version int64,
) (*Courier, error) {
	c := &Courier{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setID(id),
		c.setName(name),
		c.setLocation(location, locationAt),
		availability.Validate(),
	); err != nil {
		return nil, err
	}

	c.availability = availability
	c.availabilityChangedAt = availabilityChangedAt
	c.activeOrderID = activeOrderID
	c.version = version

	if (availability == Busy) != (activeOrderID != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause("active order is inconsistent",
			fmt.Errorf("availability %s with active order=%t", availability, activeOrderID != nil))
	}

	return c, nil
}

// Validate ensures the Courier was properly constructed.
func (c *Courier) Validate() error {
	if c == nil {
		return ErrCourierIsNotConstructed
	}
	return c.guard.Validate(ErrCourierIsNotConstructed)
}

// IsEqual compares two couriers by their unique identifiers.
func (c *Courier) IsEqual(other *Courier) bool {
	return other != nil && c.id.IsEqual(other.id)
}

// ID returns the courier's unique identifier.
func (c *Courier) ID() kernel.UUID {
	return c.id
}

// Name returns the courier's human-readable name.
func (c *Courier) Name() string {
	return c.name
}

// Availability returns the courier's dispatch state.
func (c *Courier) Availability() Availability {
	return c.availability
}

// AvailabilityChangedAt returns when the availability last changed.
func (c *Courier) AvailabilityChangedAt() time.Time {
	return c.availabilityChangedAt
}

// Location returns the last accepted position.
func (c *Courier) Location() kernel.GeoPoint {
	return c.location
}

// LocationAt returns the timestamp of the last accepted position.
func (c *Courier) LocationAt() time.Time {
	return c.locationAt
}

// ActiveOrder returns the ID of the order in execution, or nil when idle or
// offline.
func (c *Courier) ActiveOrder() *kernel.UUID {
	return c.activeOrderID
}

// Version returns the optimistic-concurrency version read from storage.
func (c *Courier) Version() int64 {
	return c.version
}

// IsAvailableForOffers reports whether the courier may receive a new offer.
func (c *Courier) IsAvailableForOffers() bool {
	return c.availability == Idle
}

// RecordLocation accepts a location ping if its timestamp is strictly newer
// than the last accepted one, otherwise returns ErrStaleLocation and keeps
// the stored position. Only the single latest point is retained.
func (c *Courier) RecordLocation(location kernel.GeoPoint, at time.Time) error {
	if err := location.Validate(); err != nil {
		return err
	}
	if !at.After(c.locationAt) {
		return ErrStaleLocation
	}

	c.location = location
	c.locationAt = at
	return nil
}

// TakeOrder moves an idle courier to busy with the given active order.
func (c *Courier) TakeOrder(orderID kernel.UUID, now time.Time) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	if c.availability != Idle {
		return ErrCourierNotIdle
	}

	c.availability = Busy
	c.availabilityChangedAt = now
	c.activeOrderID = &orderID
	return nil
}

// ReleaseOrder clears the active order and returns the courier to idle.
// Called when the order reaches a terminal state.
func (c *Courier) ReleaseOrder(now time.Time) error {
	if c.activeOrderID == nil {
		return ErrNoActiveOrder
	}

	c.availability = Idle
	c.availabilityChangedAt = now
	c.activeOrderID = nil
	return nil
}

// GoOffline takes an idle courier off shift.
func (c *Courier) GoOffline(now time.Time) error {
	if c.availability != Idle {
		return ErrCourierNotIdle
	}

	c.availability = Offline
	c.availabilityChangedAt = now
	return nil
}

// GoOnline brings an offline courier back on shift as idle.
func (c *Courier) GoOnline(now time.Time) error {
	if c.availability != Offline {
		return errs.NewValueIsInvalidErrorWithCause("availability is invalid",
			fmt.Errorf("%s courier cannot go online", c.availability))
	}

	c.availability = Idle
	c.availabilityChangedAt = now
	return nil
}

func (c *Courier) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.id = id
	return nil
}

func (c *Courier) setName(name string) error {
	if name == "" {
		return ErrNameIsRequired
	}
	c.name = name
	return nil
}

func (c *Courier) setLocation(location kernel.GeoPoint, at time.Time) error {
	if err := location.Validate(); err != nil {
		return err
	}
	c.location = location
	c.locationAt = at
	return nil
}
