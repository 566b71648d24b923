// Package capabilityregistry implements the capability registry inside Tradepost.
//
// Layering:
// - domain: grants, configuration records, errors
// - application: a single Service facade over explicit ports
// - ports: stable boundaries for persistence
// - adapters: concrete HTTP and memory implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - The settlement module consumes this service only through its own
//   registry port; it never reaches into this module's adapters.
// - Mutations are manager-gated; an initial manager is seeded at wiring time.
package capabilityregistry
