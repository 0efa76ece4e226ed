// Package offerrepo provides data transfer objects and mapping functions
// for offer persistence. Resolved offers stay in the table as the audit
// trail of dispatch rounds per order.
package offerrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"

	"github.com/google/uuid"
)

// OfferDTO represents the database structure for persisting offers.
type OfferDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;index"`
	CourierID uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
	Outcome   int       `gorm:"index"`
}

// TableName specifies the database table name for offer entities.
func (OfferDTO) TableName() string {
	return "offers"
}

func fromDomain(aggregate *offer.Offer) OfferDTO {
	return OfferDTO{
		ID:        aggregate.ID().Bytes(),
		OrderID:   aggregate.OrderID().Bytes(),
		CourierID: aggregate.CourierID().Bytes(),
		CreatedAt: aggregate.CreatedAt(),
		ExpiresAt: aggregate.ExpiresAt(),
		Outcome:   int(aggregate.Outcome()),
	}
}

func toDomain(dto OfferDTO) (*offer.Offer, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	courierID, err := kernel.UUIDFromBytes(dto.CourierID[:])
	if err != nil {
		return nil, err
	}

	return offer.RestoreOffer(
		id,
		orderID,
		courierID,
		dto.CreatedAt,
		dto.ExpiresAt,
		offer.Outcome(dto.Outcome),
	)
}
