package http

import (
	"net/http"

	"dispatch/internal/pkg/envelope"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs validator/v10 into echo's Validator interface.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator for request bodies.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *RequestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// GeoPointRequest is the wire form of a geographic position in requests.
type GeoPointRequest struct {
	Latitude  float64 `json:"lat" validate:"min=-90,max=90"`
	Longitude float64 `json:"lng" validate:"min=-180,max=180"`
	Address   string  `json:"address"`
}

// CreateOrderRequest is the body of POST /api/v1/orders.
type CreateOrderRequest struct {
	Pickup          GeoPointRequest `json:"pickup_location" validate:"required"`
	Delivery        GeoPointRequest `json:"delivery_location" validate:"required"`
	Price           float64         `json:"price" validate:"min=0"`
	LegalOrValuable bool            `json:"legal_or_valuable"`
}

// CreateCourierRequest is the body of POST /api/v1/couriers.
type CreateCourierRequest struct {
	Name     string          `json:"name" validate:"required"`
	Location GeoPointRequest `json:"location" validate:"required"`
}

// TransitionOrderRequest is the body of POST /api/v1/orders/:id/transition.
// Proof is required by the domain when the target is "delivered"; its
// absence for other targets is the normal case.
type TransitionOrderRequest struct {
	ExpectedStatus string             `json:"expected_status" validate:"required"`
	TargetStatus   string             `json:"target_status" validate:"required"`
	Proof          *envelope.Envelope `json:"proof,omitempty"`
}

// ReportLocationRequest is the body of POST /api/v1/couriers/:id/location.
type ReportLocationRequest struct {
	Latitude   float64 `json:"lat" validate:"min=-90,max=90"`
	Longitude  float64 `json:"lng" validate:"min=-180,max=180"`
	ReportedAt string  `json:"timestamp" validate:"required"`
}

// SubscribeRequest is the body of POST /api/v1/subscribe.
type SubscribeRequest struct {
	Role           string   `json:"role" validate:"required,oneof=courier customer dispatcher"`
	ObserverID     string   `json:"observer_id" validate:"required,uuid"`
	ViewedOrderIDs []string `json:"viewed_order_ids" validate:"dive,uuid"`
}

// ErrorResponse is the uniform error body of the API.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StaleTransitionResponse tells the client its view of the order drifted
// and carries the canonical status to reconcile against.
type StaleTransitionResponse struct {
	Code         int    `json:"code"`
	Message      string `json:"message"`
	ActualStatus string `json:"actual_status"`
}
