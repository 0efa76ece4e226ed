// Package courierrepo provides data transfer objects and mapping functions
// for courier persistence.
package courierrepo

import (
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// CourierDTO represents the database structure for persisting courier
// aggregates. The version column backs the optimistic lock guarding
// concurrent availability changes and location pings.
type CourierDTO struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                  string    `gorm:"type:varchar(128);not null"`
	Availability          int       `gorm:"index"`
	AvailabilityChangedAt time.Time
	Location              GeoPointDTO `gorm:"embedded;embeddedPrefix:location_"`
	LocationAt            time.Time
	ActiveOrderID         *uuid.UUID `gorm:"type:uuid"`
	Version               int64      `gorm:"not null"`
}

// TableName specifies the database table name for courier entities.
func (CourierDTO) TableName() string {
	return "couriers"
}

// GeoPointDTO represents an embedded geographic position.
type GeoPointDTO struct {
	Lat     float64
	Lng     float64
	Address string
}

func fromDomain(aggregate *courier.Courier) CourierDTO {
	dto := CourierDTO{
		ID:                    aggregate.ID().Bytes(),
		Name:                  aggregate.Name(),
		Availability:          int(aggregate.Availability()),
		AvailabilityChangedAt: aggregate.AvailabilityChangedAt(),
		Location: GeoPointDTO{
			Lat:     aggregate.Location().Latitude(),
			Lng:     aggregate.Location().Longitude(),
			Address: aggregate.Location().Address(),
		},
		LocationAt: aggregate.LocationAt(),
		Version:    aggregate.Version(),
	}

	if id := aggregate.ActiveOrder(); id != nil {
		raw := id.Bytes()
		dto.ActiveOrderID = &raw
	}

	return dto
}

func toDomain(dto CourierDTO) (*courier.Courier, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	location, err := kernel.NewGeoPoint(dto.Location.Lat, dto.Location.Lng, dto.Location.Address)
	if err != nil {
		return nil, err
	}

	var activeOrderID *kernel.UUID
	if dto.ActiveOrderID != nil {
		oID, oErr := kernel.UUIDFromBytes((*dto.ActiveOrderID)[:])
		if oErr != nil {
			return nil, oErr
		}
		activeOrderID = &oID
	}

	return courier.RestoreCourier(
		id,
		dto.Name,
		courier.Availability(dto.Availability),
		dto.AvailabilityChangedAt,
		location,
		dto.LocationAt,
		activeOrderID,
		dto.Version,
	)
}
