package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetActiveOrdersQueryIsNotConstructed = errors.New(
	"GetActiveOrdersQuery must be created via NewGetActiveOrdersQuery constructor",
)

// GetActiveOrdersQuery retrieves every order that has not reached a
// terminal state. It backs the dispatcher board, including orders waiting
// on manual dispatch.
type GetActiveOrdersQuery struct {
	guard guard.ConstructorGuard
}

// NewGetActiveOrdersQuery creates a query for the active order board.
func NewGetActiveOrdersQuery() GetActiveOrdersQuery {
	return GetActiveOrdersQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetActiveOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetActiveOrdersQueryIsNotConstructed)
}

// GetActiveOrdersQueryResponse represents one order on the dispatcher
// board.
type GetActiveOrdersQueryResponse struct {
	ID                  kernel.UUID  `json:"id"`
	Number              string       `json:"number"`
	Status              string       `json:"status"`
	CourierID           *kernel.UUID `json:"courier_id,omitempty"`
	NeedsManualDispatch bool         `json:"needs_manual_dispatch"`
	CreatedAt           time.Time    `json:"created_at"`
}
