// Package salesettlement implements the sale settlement service inside Tradepost.
//
// Layering:
// - domain: sale orders, sale state, fee arithmetic, reservation rules, errors
// - application: purchase/cancel/royalty commands, queries, outbox relay worker
// - ports: stable boundaries for persistence, ledgers, registry and events
// - adapters: concrete HTTP, memory, and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Capability and configuration reads go through the registry port only;
//   this module never owns grant state.
// - Every purchase or cancellation commits through a single unit of work so
//   ledger transfers and state writes roll back together.
package salesettlement
