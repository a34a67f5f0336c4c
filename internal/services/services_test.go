package services_test

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/semihdurgun/monadagent/internal/backend"
	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/store"
)

func init() {
	logger.InitLogger("test")
}

// stubBackend records every call and answers with canned results
type stubBackend struct {
	createErr error
	revokeErr error

	created []backend.CreateRequest
	revoked []string
}

func (b *stubBackend) Mechanism() backend.Mechanism {
	return backend.MechanismOffchain
}

func (b *stubBackend) Create(_ context.Context, req backend.CreateRequest) (*backend.Grant, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	b.created = append(b.created, req)
	return &backend.Grant{
		ID:        fmt.Sprintf("grant_%d", len(b.created)),
		Mechanism: backend.MechanismOffchain,
	}, nil
}

func (b *stubBackend) Use(_ context.Context, _ string, _ *big.Int, _ common.Address) (common.Hash, error) {
	return common.HexToHash("0x01"), nil
}

func (b *stubBackend) Revoke(_ context.Context, id string) (common.Hash, error) {
	if b.revokeErr != nil {
		return common.Hash{}, b.revokeErr
	}
	b.revoked = append(b.revoked, id)
	return common.HexToHash("0x02"), nil
}

func (b *stubBackend) Query(_ context.Context, _ string, _ common.Address) *backend.Status {
	return nil
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
