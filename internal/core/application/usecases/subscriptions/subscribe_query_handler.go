package subscriptions

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscribeQueryResponse carries the derived topic set plus the snapshot
// the observer reconciles against. Which snapshot fields are populated
// depends on the role: couriers and customers get their orders, the
// dispatcher gets the active order list and the fleet.
type SubscribeQueryResponse struct {
	Topics       []string                               `json:"topics"`
	Orders       []queries.GetOrderQueryResponse        `json:"orders,omitempty"`
	ActiveOrders []queries.GetActiveOrdersQueryResponse `json:"active_orders,omitempty"`
	Fleet        []queries.GetFleetQueryResponse        `json:"fleet,omitempty"`
}

// SubscribeQueryHandler resolves an observer's topic set and reconciliation
// snapshot on connect.
type SubscribeQueryHandler struct {
	db     *gorm.DB
	router services.TopicRouter

	orderQuery        queries.GetOrderQueryHandler
	activeOrdersQuery queries.GetActiveOrdersQueryHandler
	fleetQuery        queries.GetFleetQueryHandler
}

// NewSubscribeQueryHandler creates a handler for subscribe requests.
func NewSubscribeQueryHandler(db *gorm.DB, router services.TopicRouter) SubscribeQueryHandler {
	return SubscribeQueryHandler{
		db:                db,
		router:            router,
		orderQuery:        queries.NewGetOrderQueryHandler(db),
		activeOrdersQuery: queries.NewGetActiveOrdersQueryHandler(db),
		fleetQuery:        queries.NewGetFleetQueryHandler(db),
	}
}

// Handle derives the observer's topics and snapshot. A courier's active
// order is read from storage rather than trusted from the client, so a
// reconnecting courier always lands back in the right tracking room.
func (h SubscribeQueryHandler) Handle(ctx context.Context, query SubscribeQuery) (SubscribeQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return SubscribeQueryResponse{}, err
	}

	observer := services.Observer{
		Role:           query.Role(),
		ID:             query.ObserverID(),
		ViewedOrderIDs: query.ViewedOrderIDs(),
	}

	if observer.Role == services.RoleCourier {
		activeOrderID, err := h.activeOrderOf(ctx, query.ObserverID())
		if err != nil {
			return SubscribeQueryResponse{}, err
		}
		observer.ActiveOrderID = activeOrderID
	}

	topics, err := h.router.TopicsFor(observer)
	if err != nil {
		return SubscribeQueryResponse{}, err
	}
	resp := SubscribeQueryResponse{Topics: topics}

	switch observer.Role {
	case services.RoleCourier:
		if observer.ActiveOrderID != nil {
			if err := h.appendOrder(ctx, &resp, *observer.ActiveOrderID); err != nil {
				return SubscribeQueryResponse{}, err
			}
		}

	case services.RoleCustomer:
		for _, orderID := range observer.ViewedOrderIDs {
			if err := h.appendOrder(ctx, &resp, orderID); err != nil {
				return SubscribeQueryResponse{}, err
			}
		}

	default: // RoleDispatcher, validated by the query constructor
		resp.ActiveOrders, err = h.activeOrdersQuery.Handle(ctx, queries.NewGetActiveOrdersQuery())
		if err != nil {
			return SubscribeQueryResponse{}, err
		}
		resp.Fleet, err = h.fleetQuery.Handle(ctx, queries.NewGetFleetQuery())
		if err != nil {
			return SubscribeQueryResponse{}, err
		}
	}

	return resp, nil
}

// appendOrder adds one order's canonical state to the snapshot. An order
// that no longer exists is skipped: a customer's viewed list can be stale.
func (h SubscribeQueryHandler) appendOrder(
	ctx context.Context, resp *SubscribeQueryResponse, orderID kernel.UUID,
) error {
	orderQuery, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return err
	}

	orderResp, err := h.orderQuery.Handle(ctx, orderQuery)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	resp.Orders = append(resp.Orders, orderResp)
	return nil
}

// activeOrderOf reads the courier's current order straight from storage.
func (h SubscribeQueryHandler) activeOrderOf(ctx context.Context, courierID kernel.UUID) (*kernel.UUID, error) {
	row := h.db.WithContext(ctx).Raw(
		"SELECT active_order_id FROM couriers WHERE id = ?", courierID.Bytes(),
	).Row()

	var activeOrderID *uuid.UUID
	err := row.Scan(&activeOrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewObjectNotFoundError("courier", courierID.String())
	}
	if err != nil {
		return nil, err
	}
	if activeOrderID == nil {
		return nil, nil
	}

	orderID, err := kernel.UUIDFromBytes((*activeOrderID)[:])
	if err != nil {
		return nil, err
	}
	return &orderID, nil
}
