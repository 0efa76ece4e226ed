package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetFleetQueryHandler retrieves the fleet snapshot from the database.
type GetFleetQueryHandler struct {
	db *gorm.DB
}

// NewGetFleetQueryHandler creates a handler for fleet snapshot reads.
func NewGetFleetQueryHandler(db *gorm.DB) GetFleetQueryHandler {
	return GetFleetQueryHandler{db: db}
}

// Handle executes the query. Couriers are sorted by name for stable
// dispatcher screens.
func (h GetFleetQueryHandler) Handle(ctx context.Context, query GetFleetQuery) ([]GetFleetQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			availability,
			location_lat, location_lng, location_address,
			location_at,
			active_order_id
		FROM couriers
		ORDER BY name
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fleet := make([]GetFleetQueryResponse, 0)

	for rows.Next() {
		var (
			resp          GetFleetQueryResponse
			id            uuid.UUID
			availability  int
			locationAt    time.Time
			activeOrderID *uuid.UUID
		)

		err = rows.Scan(
			&id,
			&resp.Name,
			&availability,
			&resp.Location.Latitude, &resp.Location.Longitude, &resp.Location.Address,
			&locationAt,
			&activeOrderID,
		)
		if err != nil {
			return nil, err
		}

		courierID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.ID = courierID
		resp.Availability = courier.Availability(availability).String()
		resp.LocationAt = locationAt

		if activeOrderID != nil {
			oID, oErr := kernel.UUIDFromBytes((*activeOrderID)[:])
			if oErr != nil {
				return nil, oErr
			}
			resp.ActiveOrderID = &oID
		}

		fleet = append(fleet, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return fleet, nil
}
