// Package store is the durable lifecycle table for every delegation-backed
// record the agent creates: subscriptions, payment cards, shared pots,
// wills, scheduled payments and virtual cards. It owns the records
// exclusively; collaborators hand objects in and read views out.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/semihdurgun/monadagent/internal/logger"
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// storeKey is the fixed namespace the whole table is persisted under
const storeKey = "monadagent-store"

// document is the persisted shape: one array per record kind
type document struct {
	Subscriptions     []business.Subscription     `json:"subscriptions"`
	PaymentCards      []business.PaymentCard      `json:"payment_cards"`
	SharedPots        []business.SharedPot        `json:"shared_pots"`
	Wills             []business.DigitalWill      `json:"wills"`
	ScheduledPayments []business.ScheduledPayment `json:"scheduled_payments"`
	VirtualCards      []business.VirtualCard      `json:"virtual_cards"`
}

// Store is the process-wide record table. All mutations are serialized
// through one mutex so no update is lost to interleaving.
type Store struct {
	mu     sync.Mutex
	db     *badger.DB
	doc    document
	logger *zap.Logger
	now    func() time.Time

	// lastIDMillis guards against two records minted in the same
	// millisecond receiving the same identifier
	lastIDMillis int64
}

// Open loads (or initializes) the store backed by a badger database at dir
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	return open(opts)
}

// OpenInMemory creates a store that does not survive the process. Used by
// tests and ephemeral runs.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open record store")
	}

	s := &Store{
		db:     db,
		logger: logger.Log,
		now:    time.Now,
	}
	s.load()
	return s, nil
}

// Close flushes and releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// load reads the persisted document. Missing or corrupt state degrades to
// an empty table rather than failing startup.
func (s *Store) load() {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(storeKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s.doc)
		})
	})
	switch {
	case err == nil:
	case err == badger.ErrKeyNotFound:
		s.logger.Debug("record store is empty, starting fresh")
	default:
		s.logger.Warn("record store unreadable, starting fresh", zap.Error(err))
		s.doc = document{}
	}
}

// persist writes the current document back under the namespace key.
// Callers hold the mutex.
func (s *Store) persist() error {
	encoded, err := json.Marshal(&s.doc)
	if err != nil {
		return errors.Wrap(err, "failed to encode record store")
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(storeKey), encoded)
	})
	if err != nil {
		return errors.Wrap(err, "failed to persist record store")
	}
	return nil
}

// NewID mints a kind-prefixed identifier from the creation timestamp.
// Identifiers are strictly increasing per process and never reused.
func (s *Store) NewID(kind business.RecordKind) string {
	millis := s.now().UnixMilli()
	if millis <= s.lastIDMillis {
		millis = s.lastIDMillis + 1
	}
	s.lastIDMillis = millis
	return fmt.Sprintf("%s_%d", kind, millis)
}

// updateByID applies mutate to the record with the given id. A missing id
// is a silent no-op: concurrent UI updates may race a removal, and the
// losing update must not fail the flow.
func updateByID[T any](records []T, id string, getID func(*T) string, mutate func(*T)) bool {
	for i := range records {
		if getID(&records[i]) == id {
			mutate(&records[i])
			return true
		}
	}
	return false
}

// removeByID drops the record with the given id, reporting whether it existed
func removeByID[T any](records []T, id string, getID func(*T) string) ([]T, bool) {
	for i := range records {
		if getID(&records[i]) == id {
			return append(records[:i], records[i+1:]...), true
		}
	}
	return records, false
}

// findByID returns a copy of the record with the given id
func findByID[T any](records []T, id string, getID func(*T) string) (T, bool) {
	for i := range records {
		if getID(&records[i]) == id {
			return records[i], true
		}
	}
	var zero T
	return zero, false
}

// guardStatus keeps terminal statuses monotonic: a record that reached
// exhausted, expired or revoked never transitions back.
func guardStatus(prior, proposed business.RecordStatus) business.RecordStatus {
	if prior.Terminal() && !proposed.Terminal() {
		return prior
	}
	return proposed
}

// Remove deletes a record outright. The dominant lifecycle pattern is a
// status update that preserves audit history; removal exists for records
// created in error.
func (s *Store) Remove(kind business.RecordKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed bool
	switch kind {
	case business.KindSubscription:
		s.doc.Subscriptions, removed = removeByID(s.doc.Subscriptions, id, func(r *business.Subscription) string { return r.ID })
	case business.KindPaymentCard:
		s.doc.PaymentCards, removed = removeByID(s.doc.PaymentCards, id, func(r *business.PaymentCard) string { return r.ID })
	case business.KindSharedPot:
		s.doc.SharedPots, removed = removeByID(s.doc.SharedPots, id, func(r *business.SharedPot) string { return r.ID })
	case business.KindWill:
		s.doc.Wills, removed = removeByID(s.doc.Wills, id, func(r *business.DigitalWill) string { return r.ID })
	case business.KindScheduledPayment:
		s.doc.ScheduledPayments, removed = removeByID(s.doc.ScheduledPayments, id, func(r *business.ScheduledPayment) string { return r.ID })
	case business.KindVirtualCard:
		s.doc.VirtualCards, removed = removeByID(s.doc.VirtualCards, id, func(r *business.VirtualCard) string { return r.ID })
	default:
		return business.NewError(business.ErrInvalidConfig, fmt.Sprintf("unknown record kind %q", kind))
	}

	if !removed {
		return nil
	}
	return s.persist()
}
