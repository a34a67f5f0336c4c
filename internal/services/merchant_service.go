// Package services holds the business logic between the chat surface and
// the delegation machinery: each service owns one record kind's lifecycle
// and the rule that the store is only mutated after a successful result.
package services

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/semihdurgun/monadagent/internal/types/business"
)

// MerchantService resolves merchant names mentioned in chat to payout
// addresses. The directory is seeded from configuration and extended at
// runtime as users introduce new merchants.
type MerchantService struct {
	mu        sync.RWMutex
	directory map[string]common.Address
}

// NewMerchantService builds the directory from a seed map keyed by
// lowercase merchant name.
func NewMerchantService(seed map[string]common.Address) *MerchantService {
	directory := make(map[string]common.Address, len(seed))
	for name, addr := range seed {
		directory[strings.ToLower(name)] = addr
	}
	return &MerchantService{directory: directory}
}

// Resolve finds the payout address for a merchant name
func (m *MerchantService) Resolve(name string) (common.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	addr, ok := m.directory[strings.ToLower(strings.TrimSpace(name))]
	return addr, ok
}

// Register adds or replaces a merchant entry
func (m *MerchantService) Register(name string, addr common.Address) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return business.NewError(business.ErrInvalidConfig, "merchant name is required")
	}
	if addr == (common.Address{}) {
		return business.NewError(business.ErrInvalidAddress, "merchant address is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.directory[name] = addr
	return nil
}

// Names lists the known merchant names
func (m *MerchantService) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.directory))
	for name := range m.directory {
		names = append(names, name)
	}
	return names
}
