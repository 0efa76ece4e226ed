package commands

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrReportLocationCommandIsNotConstructed = errors.New(
	"ReportLocationCommand must be created via NewReportLocationCommand constructor",
)

// ReportLocationCommand records a position ping from a courier's device.
type ReportLocationCommand struct { //nolint:recvcheck //using for validation
	courierID  kernel.UUID
	location   kernel.GeoPoint
	reportedAt time.Time

	guard guard.ConstructorGuard
}

// NewReportLocationCommand creates a location report. reportedAt is the
// device-side capture time; pings older than the courier's last known
// position are discarded downstream.
func NewReportLocationCommand(
	courierID kernel.UUID,
	location kernel.GeoPoint,
	reportedAt time.Time,
) (ReportLocationCommand, error) {
	cmd := ReportLocationCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setCourierID(courierID); err != nil {
		return ReportLocationCommand{}, err
	}
	if err := cmd.setLocation(location); err != nil {
		return ReportLocationCommand{}, err
	}
	if err := cmd.setReportedAt(reportedAt); err != nil {
		return ReportLocationCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportLocationCommand) Validate() error {
	return c.guard.Validate(ErrReportLocationCommandIsNotConstructed)
}

// CourierID returns the reporting courier.
func (c ReportLocationCommand) CourierID() kernel.UUID {
	return c.courierID
}

// Location returns the reported position.
func (c ReportLocationCommand) Location() kernel.GeoPoint {
	return c.location
}

// ReportedAt returns the device-side capture time.
func (c ReportLocationCommand) ReportedAt() time.Time {
	return c.reportedAt
}

func (c *ReportLocationCommand) setCourierID(courierID kernel.UUID) error {
	if err := courierID.Validate(); err != nil {
		return err
	}
	c.courierID = courierID
	return nil
}

func (c *ReportLocationCommand) setLocation(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	c.location = location
	return nil
}

func (c *ReportLocationCommand) setReportedAt(reportedAt time.Time) error {
	if reportedAt.IsZero() {
		return errs.NewValueIsRequiredError("reportedAt")
	}
	c.reportedAt = reportedAt
	return nil
}
