package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads order state straight from the database,
// bypassing the aggregate. Read models stay cheap and cannot mutate
// anything.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for single-order reads.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle executes the query. Returns errs.ErrObjectNotFound when no order
// exists with the requested ID.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			number,
			status,
			pickup_lat, pickup_lng, pickup_address,
			delivery_lat, delivery_lng, delivery_address,
			price,
			legal_or_valuable,
			courier_id,
			needs_manual_dispatch,
			created_at
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Row()

	var (
		resp      GetOrderQueryResponse
		id        uuid.UUID
		status    int
		courierID *uuid.UUID
		createdAt time.Time
	)

	err := row.Scan(
		&id,
		&resp.Number,
		&status,
		&resp.Pickup.Latitude, &resp.Pickup.Longitude, &resp.Pickup.Address,
		&resp.Delivery.Latitude, &resp.Delivery.Longitude, &resp.Delivery.Address,
		&resp.Price,
		&resp.LegalOrValuable,
		&courierID,
		&resp.NeedsManualDispatch,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	resp.ID = orderID
	resp.Status = order.Status(status).String()
	resp.CreatedAt = createdAt

	if courierID != nil {
		cID, cErr := kernel.UUIDFromBytes((*courierID)[:])
		if cErr != nil {
			return GetOrderQueryResponse{}, cErr
		}
		resp.CourierID = &cID
	}

	return resp, nil
}
