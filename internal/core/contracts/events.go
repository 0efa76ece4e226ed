package contracts

import "time"

// Event type discriminators carried in every message's Type field.
const (
	EventOffer               = "offer"
	EventAssigned            = "assigned"
	EventStatusUpdate        = "status_update"
	EventLocationUpdate      = "location_update"
	EventDispatchFailedAlert = "dispatch_failed_alert"
)

// GeoPointPayload is the wire form of a geographic position.
type GeoPointPayload struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
	Address   string  `json:"address,omitempty"`
}

// OfferMessage is published to a courier's private topic when a time-boxed
// offer is issued. The expiry is authoritative on the server side; the
// client countdown is cosmetic.
type OfferMessage struct {
	Type        string          `json:"type"` // "offer"
	OfferID     string          `json:"offer_id"`
	OrderID     string          `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Pickup      GeoPointPayload `json:"pickup_location"`
	Delivery    GeoPointPayload `json:"delivery_location"`
	Price       float64         `json:"price"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// AssignedMessage is published to the dispatcher and customer topics when a
// courier wins an offer.
type AssignedMessage struct {
	Type        string `json:"type"` // "assigned"
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CourierID   string `json:"courier_id"`
	CourierName string `json:"courier_name,omitempty"`
}

// StatusUpdateMessage is published on every committed status transition to
// the dispatcher topic, the order's tracking room, and the assigned
// courier's topic.
type StatusUpdateMessage struct {
	Type        string    `json:"type"` // "status_update"
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	CourierID   string    `json:"courier_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// LocationUpdateMessage is published to the fleet topic and, when the
// courier is executing an order, to that order's tracking room.
type LocationUpdateMessage struct {
	Type      string    `json:"type"` // "location_update"
	CourierID string    `json:"courier_id"`
	OrderID   string    `json:"order_id,omitempty"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// DispatchFailedAlertMessage is published to the dispatcher alerts topic
// when automatic dispatch exhausted every candidate courier and the order
// needs manual intervention.
type DispatchFailedAlertMessage struct {
	Type        string    `json:"type"` // "dispatch_failed_alert"
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}
