package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tradepost/contexts/identity-access/capability-registry/domain/entities"
)

type grantKey struct {
	role     string
	identity string
}

// Store is the in-memory registry persistence.
type Store struct {
	mu sync.RWMutex

	grants    map[grantKey]entities.CapabilityGrant
	config    entities.Config
	assets    map[string]bool
	contracts map[string]bool

	// NowFunc overrides wall-clock time in tests.
	NowFunc func() time.Time
}

func NewStore() *Store {
	return &Store{
		grants:    make(map[grantKey]entities.CapabilityGrant),
		assets:    make(map[string]bool),
		contracts: make(map[string]bool),
	}
}

func (s *Store) Now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) HasGrant(_ context.Context, role string, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[grantKey{role: role, identity: strings.TrimSpace(identity)}]
	return ok, nil
}

func (s *Store) PutGrant(_ context.Context, grant entities.CapabilityGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grantKey{role: grant.Role, identity: strings.TrimSpace(grant.Identity)}] = grant
	return nil
}

func (s *Store) DeleteGrant(_ context.Context, role string, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, grantKey{role: role, identity: strings.TrimSpace(identity)})
	return nil
}

func (s *Store) ListGrants(_ context.Context) ([]entities.CapabilityGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.CapabilityGrant, 0, len(s.grants))
	for _, grant := range s.grants {
		items = append(items, grant)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Role == items[j].Role {
			return items[i].Identity < items[j].Identity
		}
		return items[i].Role < items[j].Role
	})
	return items, nil
}

func (s *Store) GetConfig(_ context.Context) (entities.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, nil
}

func (s *Store) PutConfig(_ context.Context, config entities.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	return nil
}

func (s *Store) IsAcceptedAsset(_ context.Context, asset string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assets[strings.TrimSpace(asset)], nil
}

func (s *Store) PutAcceptedAsset(_ context.Context, asset string, accepted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(asset)
	if accepted {
		s.assets[key] = true
		return nil
	}
	delete(s.assets, key)
	return nil
}

func (s *Store) ListAcceptedAssets(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.assets), nil
}

func (s *Store) IsSupportedContract(_ context.Context, contract string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contracts[strings.TrimSpace(contract)], nil
}

func (s *Store) PutSupportedContract(_ context.Context, contract string, supported bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(contract)
	if supported {
		s.contracts[key] = true
		return nil
	}
	delete(s.contracts, key)
	return nil
}

func (s *Store) ListSupportedContracts(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.contracts), nil
}

func sortedKeys(src map[string]bool) []string {
	keys := make([]string, 0, len(src))
	for key := range src {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
