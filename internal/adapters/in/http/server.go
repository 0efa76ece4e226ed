// Package http exposes the dispatch API over Echo. Handlers translate
// request bodies into commands and queries and map domain errors onto
// HTTP status codes; no business rules live here.
package http

import (
	"errors"
	"net/http"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/application/usecases/subscriptions"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/offer"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/envelope"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	createOrderHandler    commands.CreateOrderCommandHandler
	createCourierHandler  commands.CreateCourierCommandHandler
	resolveOfferHandler   commands.ResolveOfferCommandHandler
	transitionHandler     commands.TransitionOrderCommandHandler
	reportLocationHandler commands.ReportLocationCommandHandler

	getOrderHandler        queries.GetOrderQueryHandler
	getFleetHandler        queries.GetFleetQueryHandler
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler
	subscribeHandler       subscriptions.SubscribeQueryHandler
}

// NewServer creates a new HTTP server with the required command and query
// handlers.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	createCourierHandler commands.CreateCourierCommandHandler,
	resolveOfferHandler commands.ResolveOfferCommandHandler,
	transitionHandler commands.TransitionOrderCommandHandler,
	reportLocationHandler commands.ReportLocationCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getFleetHandler queries.GetFleetQueryHandler,
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler,
	subscribeHandler subscriptions.SubscribeQueryHandler,
) *Server {
	return &Server{
		createOrderHandler:     createOrderHandler,
		createCourierHandler:   createCourierHandler,
		resolveOfferHandler:    resolveOfferHandler,
		transitionHandler:      transitionHandler,
		reportLocationHandler:  reportLocationHandler,
		getOrderHandler:        getOrderHandler,
		getFleetHandler:        getFleetHandler,
		getActiveOrdersHandler: getActiveOrdersHandler,
		subscribeHandler:       subscribeHandler,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.GetActiveOrders)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/transition", s.TransitionOrder)

	api.POST("/couriers", s.CreateCourier)
	api.GET("/couriers", s.GetFleet)
	api.POST("/couriers/:id/location", s.ReportLocation)

	api.POST("/offers/:id/accept", s.AcceptOffer)
	api.POST("/offers/:id/reject", s.RejectOffer)

	api.POST("/subscribe", s.Subscribe)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req CreateOrderRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	pickup, err := kernel.NewGeoPoint(req.Pickup.Latitude, req.Pickup.Longitude, req.Pickup.Address)
	if err != nil {
		return badRequest(ctx, err)
	}
	delivery, err := kernel.NewGeoPoint(req.Delivery.Latitude, req.Delivery.Longitude, req.Delivery.Address)
	if err != nil {
		return badRequest(ctx, err)
	}

	orderID := kernel.NewUUID()
	cmd, err := commands.NewCreateOrderCommand(orderID, pickup, delivery, req.Price, req.LegalOrValuable)
	if err != nil {
		return badRequest(ctx, err)
	}

	if err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"id": orderID.String()})
}

// CreateCourier handles POST /api/v1/couriers.
func (s *Server) CreateCourier(ctx echo.Context) error {
	var req CreateCourierRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	location, err := kernel.NewGeoPoint(req.Location.Latitude, req.Location.Longitude, req.Location.Address)
	if err != nil {
		return badRequest(ctx, err)
	}

	cmd, err := commands.NewCreateCourierCommand(req.Name, location)
	if err != nil {
		return badRequest(ctx, err)
	}

	if err := s.createCourierHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"id": cmd.CourierID().String()})
}

// AcceptOffer handles POST /api/v1/offers/:id/accept.
func (s *Server) AcceptOffer(ctx echo.Context) error {
	return s.resolveOffer(ctx, offer.OutcomeAccepted)
}

// RejectOffer handles POST /api/v1/offers/:id/reject.
func (s *Server) RejectOffer(ctx echo.Context) error {
	return s.resolveOffer(ctx, offer.OutcomeRejected)
}

func (s *Server) resolveOffer(ctx echo.Context, outcome offer.Outcome) error {
	offerID, err := pathUUID(ctx, "id")
	if err != nil {
		return badRequest(ctx, err)
	}

	cmd, err := commands.NewResolveOfferCommand(offerID, outcome)
	if err != nil {
		return badRequest(ctx, err)
	}

	if err := s.resolveOfferHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// TransitionOrder handles POST /api/v1/orders/:id/transition.
func (s *Server) TransitionOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return badRequest(ctx, err)
	}

	var req TransitionOrderRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	expected, err := order.StatusFromString(req.ExpectedStatus)
	if err != nil {
		return badRequest(ctx, err)
	}
	target, err := order.StatusFromString(req.TargetStatus)
	if err != nil {
		return badRequest(ctx, err)
	}

	cmd, err := commands.NewTransitionOrderCommand(orderID, expected, target, req.Proof)
	if err != nil {
		return badRequest(ctx, err)
	}

	if err := s.transitionHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// ReportLocation handles POST /api/v1/couriers/:id/location.
func (s *Server) ReportLocation(ctx echo.Context) error {
	courierID, err := pathUUID(ctx, "id")
	if err != nil {
		return badRequest(ctx, err)
	}

	var req ReportLocationRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	reportedAt, err := time.Parse(time.RFC3339, req.ReportedAt)
	if err != nil {
		return badRequest(ctx, err)
	}

	location, err := kernel.NewGeoPoint(req.Latitude, req.Longitude, "")
	if err != nil {
		return badRequest(ctx, err)
	}

	cmd, err := commands.NewReportLocationCommand(courierID, location, reportedAt)
	if err != nil {
		return badRequest(ctx, err)
	}

	if err := s.reportLocationHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusAccepted)
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "id")
	if err != nil {
		return badRequest(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return badRequest(ctx, err)
	}

	resp, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, resp)
}

// GetFleet handles GET /api/v1/couriers.
func (s *Server) GetFleet(ctx echo.Context) error {
	resp, err := s.getFleetHandler.Handle(ctx.Request().Context(), queries.NewGetFleetQuery())
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, resp)
}

// GetActiveOrders handles GET /api/v1/orders.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	resp, err := s.getActiveOrdersHandler.Handle(ctx.Request().Context(), queries.NewGetActiveOrdersQuery())
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, resp)
}

// Subscribe handles POST /api/v1/subscribe. It returns the topic set the
// observer should listen on plus a reconciliation snapshot.
func (s *Server) Subscribe(ctx echo.Context) error {
	var req SubscribeRequest
	if err := bind(ctx, &req); err != nil {
		return err
	}

	role := observerRoleFromString(req.Role)
	observerID, err := kernel.UUIDFromString(req.ObserverID)
	if err != nil {
		return badRequest(ctx, err)
	}

	viewed := make([]kernel.UUID, 0, len(req.ViewedOrderIDs))
	for _, raw := range req.ViewedOrderIDs {
		orderID, err := kernel.UUIDFromString(raw)
		if err != nil {
			return badRequest(ctx, err)
		}
		viewed = append(viewed, orderID)
	}

	query, err := subscriptions.NewSubscribeQuery(role, observerID, viewed)
	if err != nil {
		return badRequest(ctx, err)
	}

	resp, err := s.subscribeHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, resp)
}

func observerRoleFromString(role string) services.ObserverRole {
	switch role {
	case "courier":
		return services.RoleCourier
	case "customer":
		return services.RoleCustomer
	case "dispatcher":
		return services.RoleDispatcher
	default:
		return services.RoleUnknown
	}
}

func bind(ctx echo.Context, req any) error {
	if err := ctx.Bind(req); err != nil {
		return badRequest(ctx, err)
	}
	if err := ctx.Validate(req); err != nil {
		return err
	}
	return nil
}

func pathUUID(ctx echo.Context, param string) (kernel.UUID, error) {
	return kernel.UUIDFromString(ctx.Param(param))
}

func badRequest(ctx echo.Context, err error) error {
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: err.Error(),
	})
}

// mapError translates domain and application errors onto HTTP statuses. A
// stale transition carries the canonical status so the client can
// reconcile without another round trip.
func mapError(ctx echo.Context, err error) error {
	var stale *order.StaleTransitionError
	if errors.As(err, &stale) {
		return ctx.JSON(http.StatusConflict, StaleTransitionResponse{
			Code:         http.StatusConflict,
			Message:      err.Error(),
			ActualStatus: stale.Actual.String(),
		})
	}

	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})

	case errors.Is(err, offer.ErrOfferAlreadyResolved),
		errors.Is(err, courier.ErrCourierNotIdle):
		return ctx.JSON(http.StatusConflict, ErrorResponse{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})

	case errors.Is(err, order.ErrMissingLegalIdentity),
		errors.Is(err, order.ErrInvalidProofPayload),
		errors.Is(err, envelope.ErrDecryptionFailed):
		return ctx.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: err.Error(),
		})

	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired):
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})

	default:
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "internal error",
		})
	}
}
