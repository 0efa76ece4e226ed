package order

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrProofIsNotConstructed is returned when a ProofOfDelivery was not
	// created via NewProofOfDelivery.
	ErrProofIsNotConstructed = errors.New("ProofOfDelivery must be created via NewProofOfDelivery constructor")

	// ErrSignatureIsRequired is returned when the signature image reference
	// is missing from a proof payload.
	ErrSignatureIsRequired = errs.NewValueIsRequiredError("signature reference")

	// ErrCapturedAtIsRequired is returned when the capture timestamp is
	// missing from a proof payload.
	ErrCapturedAtIsRequired = errs.NewValueIsRequiredError("captured at")
)

// ProofOfDelivery is the countersigned record required to finalize a
// delivery: a signature image reference, the geolocation and timestamp of
// capture, and, for legal or valuable shipments, the recipient's legal
// identity. It is an immutable value object created exactly once and owned
// by its Order.
type ProofOfDelivery struct {
	signatureRef      string
	capturedAt        time.Time
	location          kernel.GeoPoint
	recipientName     string
	recipientIDNumber string
	guard             guard.ConstructorGuard
}

// NewProofOfDelivery creates a validated proof record. The signature
// reference, capture location, and capture timestamp are always required;
// recipient identity fields are optional here and enforced by the order
// aggregate when the shipment is flagged legal or valuable.
func NewProofOfDelivery(
	signatureRef string,
	location kernel.GeoPoint,
	capturedAt time.Time,
	recipientName string,
	recipientIDNumber string,
) (ProofOfDelivery, error) {
	if signatureRef == "" {
		return ProofOfDelivery{}, ErrSignatureIsRequired
	}
	if err := location.Validate(); err != nil {
		return ProofOfDelivery{}, err
	}
	if capturedAt.IsZero() {
		return ProofOfDelivery{}, ErrCapturedAtIsRequired
	}

	return ProofOfDelivery{
		signatureRef:      signatureRef,
		capturedAt:        capturedAt,
		location:          location,
		recipientName:     recipientName,
		recipientIDNumber: recipientIDNumber,
		guard:             guard.NewConstructorGuard(),
	}, nil
}

// SignatureRef returns the reference to the captured signature image.
func (p ProofOfDelivery) SignatureRef() string {
	return p.signatureRef
}

// CapturedAt returns the moment the proof was captured on the device.
func (p ProofOfDelivery) CapturedAt() time.Time {
	return p.capturedAt
}

// Location returns the geolocation where the proof was captured.
func (p ProofOfDelivery) Location() kernel.GeoPoint {
	return p.location
}

// RecipientName returns the recipient's legal name, empty when not captured.
func (p ProofOfDelivery) RecipientName() string {
	return p.recipientName
}

// RecipientIDNumber returns the recipient's legal ID number, empty when not
// captured.
func (p ProofOfDelivery) RecipientIDNumber() string {
	return p.recipientIDNumber
}

// HasLegalIdentity reports whether both recipient identity fields are
// present, as required for legal or valuable shipments.
func (p ProofOfDelivery) HasLegalIdentity() bool {
	return p.recipientName != "" && p.recipientIDNumber != ""
}

// Validate ensures the proof was created through NewProofOfDelivery.
func (p ProofOfDelivery) Validate() error {
	return p.guard.Validate(ErrProofIsNotConstructed)
}
