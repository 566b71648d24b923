package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"tradepost/contexts/settlement-core/sale-settlement-service/domain/entities"
	domainerrors "tradepost/contexts/settlement-core/sale-settlement-service/domain/errors"
	"tradepost/contexts/settlement-core/sale-settlement-service/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message ports.OutboxMessage
	sent    bool
}

type fungibleKey struct {
	asset string
	owner string
}

type uniqueKey struct {
	contract string
	itemID   string
}

type holdingKey struct {
	contract string
	owner    string
	itemID   string
}

// Store is the in-memory settlement persistence plus both value ledgers.
// One store instance backs a whole module wiring, so a transfer performed by
// the payment ledger and a state write performed by the repository roll back
// together under the same unit of work.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	settlementIdentity string

	saleStates    map[string]entities.SaleState
	royalties     map[string]entities.RoyaltyInfo
	settlements   map[string]entities.Settlement
	cancellations map[string]entities.Cancellation
	outbox        map[string]outboxRecord
	outboxOrder   []string

	nativeBalances     map[string]uint64
	fungibleBalances   map[fungibleKey]uint64
	fungibleAllowances map[fungibleKey]uint64
	uniqueOwners       map[uniqueKey]string
	quantityHoldings   map[holdingKey]uint64
	operatorApprovals  map[fungibleKey]bool

	sequence uint64

	// NowFunc overrides wall-clock time in tests.
	NowFunc func() time.Time
}

// NewStore builds an empty store. settlementIdentity is the identity fungible
// allowances and asset operator approvals must be granted to before a
// purchase can move value.
func NewStore(settlementIdentity string) *Store {
	return &Store{
		settlementIdentity: strings.TrimSpace(settlementIdentity),
		saleStates:         make(map[string]entities.SaleState),
		royalties:          make(map[string]entities.RoyaltyInfo),
		settlements:        make(map[string]entities.Settlement),
		cancellations:      make(map[string]entities.Cancellation),
		outbox:             make(map[string]outboxRecord),
		nativeBalances:     make(map[string]uint64),
		fungibleBalances:   make(map[fungibleKey]uint64),
		fungibleAllowances: make(map[fungibleKey]uint64),
		uniqueOwners:       make(map[uniqueKey]string),
		quantityHoldings:   make(map[holdingKey]uint64),
		operatorApprovals:  make(map[fungibleKey]bool),
	}
}

// SettlementIdentity is the identity allowances and operator approvals in
// this store are granted to.
func (s *Store) SettlementIdentity() string {
	return s.settlementIdentity
}

func (s *Store) Now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// Current reports the ordering counter purchase expiry is compared against.
func (s *Store) Current(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sequence, nil
}

func (s *Store) Advance(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return s.sequence, nil
}

// SetSequence positions the ordering counter, for tests.
func (s *Store) SetSequence(value uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence = value
}

// --- seeding helpers -------------------------------------------------------

func (s *Store) CreditNative(owner string, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nativeBalances[strings.TrimSpace(owner)] += amount
}

func (s *Store) CreditFungible(asset string, owner string, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fungibleBalances[fungibleKey{asset: strings.TrimSpace(asset), owner: strings.TrimSpace(owner)}] += amount
}

// ApproveFungible grants the settlement identity spending allowance over an
// owner's fungible balance.
func (s *Store) ApproveFungible(asset string, owner string, allowance uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fungibleAllowances[fungibleKey{asset: strings.TrimSpace(asset), owner: strings.TrimSpace(owner)}] = allowance
}

func (s *Store) SetUniqueOwner(assetContract string, itemID string, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uniqueOwners[uniqueKey{contract: strings.TrimSpace(assetContract), itemID: strings.TrimSpace(itemID)}] = strings.TrimSpace(owner)
}

func (s *Store) CreditQuantity(assetContract string, owner string, itemID string, amount uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := holdingKey{contract: strings.TrimSpace(assetContract), owner: strings.TrimSpace(owner), itemID: strings.TrimSpace(itemID)}
	s.quantityHoldings[key] += amount
}

// SetOperatorApproval grants (or revokes) the settlement identity blanket
// transfer rights over an owner's holdings under one asset contract.
func (s *Store) SetOperatorApproval(assetContract string, owner string, approved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operatorApprovals[fungibleKey{asset: strings.TrimSpace(assetContract), owner: strings.TrimSpace(owner)}] = approved
}

func (s *Store) NativeBalance(owner string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nativeBalances[strings.TrimSpace(owner)]
}

func (s *Store) FungibleBalance(asset string, owner string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fungibleBalances[fungibleKey{asset: strings.TrimSpace(asset), owner: strings.TrimSpace(owner)}]
}

func (s *Store) UniqueOwner(assetContract string, itemID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uniqueOwners[uniqueKey{contract: strings.TrimSpace(assetContract), itemID: strings.TrimSpace(itemID)}]
}

func (s *Store) QuantityHolding(assetContract string, owner string, itemID string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quantityHoldings[holdingKey{contract: strings.TrimSpace(assetContract), owner: strings.TrimSpace(owner), itemID: strings.TrimSpace(itemID)}]
}

// --- sale state ------------------------------------------------------------

func (s *Store) GetSaleState(_ context.Context, saleID string) (entities.SaleState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.saleStates[strings.TrimSpace(saleID)]
	return state, ok, nil
}

func (s *Store) PutSaleState(_ context.Context, state entities.SaleState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saleStates[strings.TrimSpace(state.SaleID)] = state
	return nil
}

// --- royalty ---------------------------------------------------------------

func (s *Store) GetRoyalty(_ context.Context, assetContract string) (entities.RoyaltyInfo, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.royalties[strings.TrimSpace(assetContract)]
	return info, ok, nil
}

func (s *Store) PutRoyalty(_ context.Context, info entities.RoyaltyInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.royalties[strings.TrimSpace(info.AssetContract)] = info
	return nil
}

// --- settlement log + outbox -----------------------------------------------

func (s *Store) CreateSettlementWithOutbox(_ context.Context, settlement entities.Settlement, event ports.PurchasedEvent) error {
	envelope, err := ports.NewPurchasedEnvelope(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settlements[strings.TrimSpace(settlement.SettlementID)] = settlement
	return s.appendOutboxLocked(envelope)
}

func (s *Store) CreateCancellationWithOutbox(_ context.Context, cancellation entities.Cancellation, event ports.CanceledEvent) error {
	envelope, err := ports.NewCanceledEnvelope(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancellations[strings.TrimSpace(cancellation.SaleID)] = cancellation
	return s.appendOutboxLocked(envelope)
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, exists := s.outbox[outboxID]; exists {
		return nil
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
	}
	s.outboxOrder = append(s.outboxOrder, outboxID)
	return nil
}

func (s *Store) ListSettlements(_ context.Context, filter ports.SettlementFilter) ([]entities.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Settlement, 0, len(s.settlements))
	for _, settlement := range s.settlements {
		if filter.SaleID != "" && settlement.SaleID != filter.SaleID {
			continue
		}
		if filter.Buyer != "" && settlement.Buyer != filter.Buyer {
			continue
		}
		if filter.Seller != "" && settlement.Seller != filter.Seller {
			continue
		}
		items = append(items, settlement)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SettledAt.Equal(items[j].SettledAt) {
			return items[i].SettlementID < items[j].SettlementID
		}
		return items[i].SettledAt.Before(items[j].SettledAt)
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) GetCancellation(_ context.Context, saleID string) (entities.Cancellation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cancellation, ok := s.cancellations[strings.TrimSpace(saleID)]
	return cancellation, ok, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0, limit)
	for _, outboxID := range s.outboxOrder {
		record, ok := s.outbox[outboxID]
		if !ok || record.sent {
			continue
		}
		items = append(items, record.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	record.sent = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

// --- payment ledger --------------------------------------------------------

func (s *Store) TransferNative(_ context.Context, payer string, payee string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payerKey := strings.TrimSpace(payer)
	if s.nativeBalances[payerKey] < amount {
		return domainerrors.ErrTransferFailed
	}
	s.nativeBalances[payerKey] -= amount
	s.nativeBalances[strings.TrimSpace(payee)] += amount
	return nil
}

func (s *Store) TransferFungible(_ context.Context, asset string, payer string, payee string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payerKey := fungibleKey{asset: strings.TrimSpace(asset), owner: strings.TrimSpace(payer)}
	if s.fungibleAllowances[payerKey] < amount {
		return domainerrors.ErrInsufficientAllowance
	}
	if s.fungibleBalances[payerKey] < amount {
		return domainerrors.ErrTransferFailed
	}
	s.fungibleAllowances[payerKey] -= amount
	s.fungibleBalances[payerKey] -= amount
	s.fungibleBalances[fungibleKey{asset: payerKey.asset, owner: strings.TrimSpace(payee)}] += amount
	return nil
}

// --- asset ledger ----------------------------------------------------------

func (s *Store) TransferUnique(_ context.Context, assetContract string, from string, to string, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contract := strings.TrimSpace(assetContract)
	owner := strings.TrimSpace(from)
	key := uniqueKey{contract: contract, itemID: strings.TrimSpace(itemID)}
	if s.uniqueOwners[key] != owner {
		return domainerrors.ErrTransferFailed
	}
	if !s.operatorApprovals[fungibleKey{asset: contract, owner: owner}] {
		return domainerrors.ErrTransferFailed
	}
	s.uniqueOwners[key] = strings.TrimSpace(to)
	return nil
}

func (s *Store) TransferQuantity(_ context.Context, assetContract string, from string, to string, itemID string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contract := strings.TrimSpace(assetContract)
	owner := strings.TrimSpace(from)
	if !s.operatorApprovals[fungibleKey{asset: contract, owner: owner}] {
		return domainerrors.ErrTransferFailed
	}
	fromKey := holdingKey{contract: contract, owner: owner, itemID: strings.TrimSpace(itemID)}
	if s.quantityHoldings[fromKey] < amount {
		return domainerrors.ErrTransferFailed
	}
	s.quantityHoldings[fromKey] -= amount
	toKey := holdingKey{contract: contract, owner: strings.TrimSpace(to), itemID: fromKey.itemID}
	s.quantityHoldings[toKey] += amount
	return nil
}

// --- unit of work ----------------------------------------------------------

type storeSnapshot struct {
	saleStates         map[string]entities.SaleState
	royalties          map[string]entities.RoyaltyInfo
	settlements        map[string]entities.Settlement
	cancellations      map[string]entities.Cancellation
	outbox             map[string]outboxRecord
	outboxOrder        []string
	nativeBalances     map[string]uint64
	fungibleBalances   map[fungibleKey]uint64
	fungibleAllowances map[fungibleKey]uint64
	uniqueOwners       map[uniqueKey]string
	quantityHoldings   map[holdingKey]uint64
	operatorApprovals  map[fungibleKey]bool
}

// Execute serializes transactions and rolls every map back to its pre-call
// snapshot when fn fails. Mid-transaction reads from other goroutines are
// still possible; callers that need isolation route all writes through one
// unit of work, which this serialization guarantees.
func (s *Store) Execute(ctx context.Context, fn func(ctx context.Context, stores ports.SettlementStores) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(ctx, s); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

func (s *Store) snapshot() storeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storeSnapshot{
		saleStates:         copyMap(s.saleStates),
		royalties:          copyMap(s.royalties),
		settlements:        copyMap(s.settlements),
		cancellations:      copyMap(s.cancellations),
		outbox:             copyMap(s.outbox),
		outboxOrder:        append([]string(nil), s.outboxOrder...),
		nativeBalances:     copyMap(s.nativeBalances),
		fungibleBalances:   copyMap(s.fungibleBalances),
		fungibleAllowances: copyMap(s.fungibleAllowances),
		uniqueOwners:       copyMap(s.uniqueOwners),
		quantityHoldings:   copyMap(s.quantityHoldings),
		operatorApprovals:  copyMap(s.operatorApprovals),
	}
}

func (s *Store) restore(snapshot storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saleStates = snapshot.saleStates
	s.royalties = snapshot.royalties
	s.settlements = snapshot.settlements
	s.cancellations = snapshot.cancellations
	s.outbox = snapshot.outbox
	s.outboxOrder = snapshot.outboxOrder
	s.nativeBalances = snapshot.nativeBalances
	s.fungibleBalances = snapshot.fungibleBalances
	s.fungibleAllowances = snapshot.fungibleAllowances
	s.uniqueOwners = snapshot.uniqueOwners
	s.quantityHoldings = snapshot.quantityHoldings
	s.operatorApprovals = snapshot.operatorApprovals
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
