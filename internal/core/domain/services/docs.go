// Package services provides domain services that orchestrate business
// operations across multiple domain entities in the dispatch system.
//
// The package includes:
//   - CandidateSelector: picks the courier an offer should go to next,
//     ranking idle couriers by distance to pickup with a fairness tie-break
//   - TopicRouter: derives the event-bus topic set for each observer from
//     its declared interest
//
// Domain services coordinate between aggregates, implementing business
// logic that spans multiple bounded contexts following Domain-Driven Design
// principles.
package services
