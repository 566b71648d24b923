package entities

import "time"

// SaleState is the persisted runtime record for one sale identifier. It is
// created lazily on the first purchase attempt and never deleted.
//
// Invariants:
//   - Locked transitions exactly once, unlocked to locked, never back.
//   - Remaining only decreases and never exceeds the quantity frozen at lock.
//   - Canceled is set at most once and is permanent.
type SaleState struct {
	SaleID    string
	Locked    bool
	Remaining uint64
	Canceled  bool
	UpdatedAt time.Time
}

// RoyaltyInfo is the per-asset-contract royalty configuration. Absence of a
// record means zero royalty.
type RoyaltyInfo struct {
	AssetContract string
	RateBps       uint64
	Receiver      string
	UpdatedAt     time.Time
}
