// Package contracts defines the topic model and message contracts carried
// over the event bus. Observers (couriers, customers, dispatchers) subscribe
// to topics; the core publishes fire-and-forget messages to them. The
// transport itself is an external collaborator with at-least-once,
// unordered delivery, so every consumer must tolerate duplicates.
package contracts

import "fmt"

const (
	// FleetTopic carries location updates for the dispatcher's fleet view.
	FleetTopic = "fleet"

	// DispatchAlertsTopic carries dispatcher-facing alerts: assignments,
	// status updates, and manual-dispatch escalations.
	DispatchAlertsTopic = "dispatch.alerts"
)

// CourierTopic returns the private topic of a courier, used for offers and
// status updates addressed to that courier.
func CourierTopic(courierID string) string {
	return fmt.Sprintf("courier.%s", courierID)
}

// OrderTrackingTopic returns the tracking room of an order, observed by the
// customer and any dispatcher watching that order.
func OrderTrackingTopic(orderID string) string {
	return fmt.Sprintf("order.%s.tracking", orderID)
}
