// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. It implements the repository pattern for the order
// aggregate, converting between domain entities and database rows.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order
// aggregates. The version column backs the optimistic lock that serializes
// concurrent offer resolutions and status transitions.
type OrderDTO struct {
	ID                  uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Number              string      `gorm:"type:varchar(16);not null"`
	Status              int         `gorm:"index"`
	Pickup              GeoPointDTO `gorm:"embedded;embeddedPrefix:pickup_"`
	Delivery            GeoPointDTO `gorm:"embedded;embeddedPrefix:delivery_"`
	Price               float64
	LegalOrValuable     bool
	CourierID           *uuid.UUID `gorm:"type:uuid;index"`
	CurrentOfferID      *uuid.UUID `gorm:"type:uuid"`
	Proof               ProofDTO   `gorm:"embedded;embeddedPrefix:proof_"`
	NeedsManualDispatch bool
	CreatedAt           time.Time
	Version             int64 `gorm:"not null"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// GeoPointDTO represents an embedded geographic position.
type GeoPointDTO struct {
	Lat     float64
	Lng     float64
	Address string
}

// ProofDTO represents the embedded proof of delivery columns. All fields
// are nullable; they are populated only for delivered orders. Recipient
// identity is present only for legal or valuable shipments.
type ProofDTO struct {
	SignatureRef      *string
	Lat               *float64
	Lng               *float64
	Address           *string
	CapturedAt        *time.Time
	RecipientName     *string
	RecipientIDNumber *string
}

func fromDomain(aggregate *order.Order) OrderDTO {
	dto := OrderDTO{
		ID:     aggregate.ID().Bytes(),
		Number: aggregate.Number(),
		Status: int(aggregate.Status()),
		Pickup: GeoPointDTO{
			Lat:     aggregate.Pickup().Latitude(),
			Lng:     aggregate.Pickup().Longitude(),
			Address: aggregate.Pickup().Address(),
		},
		Delivery: GeoPointDTO{
			Lat:     aggregate.Delivery().Latitude(),
			Lng:     aggregate.Delivery().Longitude(),
			Address: aggregate.Delivery().Address(),
		},
		Price:               aggregate.Price(),
		LegalOrValuable:     aggregate.IsLegalOrValuable(),
		NeedsManualDispatch: aggregate.NeedsManualDispatch(),
		CreatedAt:           aggregate.CreatedAt(),
		Version:             aggregate.Version(),
	}

	if id := aggregate.Courier(); id != nil {
		raw := id.Bytes()
		dto.CourierID = &raw
	}
	if id := aggregate.CurrentOffer(); id != nil {
		raw := id.Bytes()
		dto.CurrentOfferID = &raw
	}
	if proof := aggregate.Proof(); proof != nil {
		signatureRef := proof.SignatureRef()
		lat := proof.Location().Latitude()
		lng := proof.Location().Longitude()
		address := proof.Location().Address()
		capturedAt := proof.CapturedAt()
		name := proof.RecipientName()
		idNumber := proof.RecipientIDNumber()

		dto.Proof = ProofDTO{
			SignatureRef:      &signatureRef,
			Lat:               &lat,
			Lng:               &lng,
			Address:           &address,
			CapturedAt:        &capturedAt,
			RecipientName:     &name,
			RecipientIDNumber: &idNumber,
		}
	}

	return dto
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	pickup, err := kernel.NewGeoPoint(dto.Pickup.Lat, dto.Pickup.Lng, dto.Pickup.Address)
	if err != nil {
		return nil, err
	}
	delivery, err := kernel.NewGeoPoint(dto.Delivery.Lat, dto.Delivery.Lng, dto.Delivery.Address)
	if err != nil {
		return nil, err
	}

	var courierID *kernel.UUID
	if dto.CourierID != nil {
		cID, cErr := kernel.UUIDFromBytes((*dto.CourierID)[:])
		if cErr != nil {
			return nil, cErr
		}
		courierID = &cID
	}

	var currentOfferID *kernel.UUID
	if dto.CurrentOfferID != nil {
		oID, oErr := kernel.UUIDFromBytes((*dto.CurrentOfferID)[:])
		if oErr != nil {
			return nil, oErr
		}
		currentOfferID = &oID
	}

	var proof *order.ProofOfDelivery
	if dto.Proof.SignatureRef != nil {
		location, pErr := kernel.NewGeoPoint(
			derefFloat(dto.Proof.Lat),
			derefFloat(dto.Proof.Lng),
			derefString(dto.Proof.Address),
		)
		if pErr != nil {
			return nil, pErr
		}

		restored, pErr := order.NewProofOfDelivery(
			*dto.Proof.SignatureRef,
			location,
			derefTime(dto.Proof.CapturedAt),
			derefString(dto.Proof.RecipientName),
			derefString(dto.Proof.RecipientIDNumber),
		)
		if pErr != nil {
			return nil, pErr
		}
		proof = &restored
	}

	return order.RestoreOrder(
		id,
		dto.Number,
		order.Status(dto.Status),
		pickup,
		delivery,
		dto.Price,
		dto.LegalOrValuable,
		courierID,
		currentOfferID,
		proof,
		dto.NeedsManualDispatch,
		dto.CreatedAt,
		dto.Version,
	)
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefTime(v *time.Time) time.Time {
	if v == nil {
		return time.Time{}
	}
	return *v
}
