package store

import (
	"github.com/semihdurgun/monadagent/internal/types/business"
)

// Subscriptions

// AddSubscription assigns an id and creation time, then persists the record
func (s *Store) AddSubscription(record business.Subscription) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.NewID(business.KindSubscription)
	record.CreatedAt = s.now()
	if record.Status == "" {
		record.Status = business.StatusActive
	}
	s.doc.Subscriptions = append(s.doc.Subscriptions, record)
	if err := s.persist(); err != nil {
		return "", err
	}
	return record.ID, nil
}

// UpdateSubscription mutates the record in place. Unknown ids are a no-op;
// terminal statuses are preserved against backward transitions.
func (s *Store) UpdateSubscription(id string, mutate func(*business.Subscription)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := updateByID(s.doc.Subscriptions, id, func(r *business.Subscription) string { return r.ID },
		func(r *business.Subscription) {
			prior := r.Status
			mutate(r)
			r.Status = guardStatus(prior, r.Status)
		})
	if !found {
		return nil
	}
	return s.persist()
}

// ListSubscriptions returns a copy of every subscription record
func (s *Store) ListSubscriptions() []business.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]business.Subscription(nil), s.doc.Subscriptions...)
}

// GetSubscription looks up one subscription by id
func (s *Store) GetSubscription(id string) (business.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findByID(s.doc.Subscriptions, id, func(r *business.Subscription) string { return r.ID })
}

// Payment cards

func (s *Store) AddPaymentCard(record business.PaymentCard) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.NewID(business.KindPaymentCard)
	record.CreatedAt = s.now()
	if record.Status == "" {
		record.Status = business.StatusActive
	}
	s.doc.PaymentCards = append(s.doc.PaymentCards, record)
	if err := s.persist(); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (s *Store) UpdatePaymentCard(id string, mutate func(*business.PaymentCard)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := updateByID(s.doc.PaymentCards, id, func(r *business.PaymentCard) string { return r.ID },
		func(r *business.PaymentCard) {
			prior := r.Status
			mutate(r)
			r.Status = guardStatus(prior, r.Status)
		})
	if !found {
		return nil
	}
	return s.persist()
}

func (s *Store) ListPaymentCards() []business.PaymentCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]business.PaymentCard(nil), s.doc.PaymentCards...)
}

func (s *Store) GetPaymentCard(id string) (business.PaymentCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findByID(s.doc.PaymentCards, id, func(r *business.PaymentCard) string { return r.ID })
}

// Shared pots

func (s *Store) AddSharedPot(record business.SharedPot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.NewID(business.KindSharedPot)
	record.CreatedAt = s.now()
	if record.Status == "" {
		record.Status = business.StatusActive
	}
	s.doc.SharedPots = append(s.doc.SharedPots, record)
	if err := s.persist(); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (s *Store) UpdateSharedPot(id string, mutate func(*business.SharedPot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := updateByID(s.doc.SharedPots, id, func(r *business.SharedPot) string { return r.ID },
		func(r *business.SharedPot) {
			prior := r.Status
			mutate(r)
			r.Status = guardStatus(prior, r.Status)
		})
	if !found {
		return nil
	}
	return s.persist()
}

func (s *Store) ListSharedPots() []business.SharedPot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]business.SharedPot(nil), s.doc.SharedPots...)
}

func (s *Store) GetSharedPot(id string) (business.SharedPot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findByID(s.doc.SharedPots, id, func(r *business.SharedPot) string { return r.ID })
}

// Wills

func (s *Store) AddWill(record business.DigitalWill) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.NewID(business.KindWill)
	record.CreatedAt = s.now()
	record.LastActivity = record.CreatedAt
	if record.Status == "" {
		record.Status = business.StatusActive
	}
	s.doc.Wills = append(s.doc.Wills, record)
	if err := s.persist(); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (s *Store) UpdateWill(id string, mutate func(*business.DigitalWill)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := updateByID(s.doc.Wills, id, func(r *business.DigitalWill) string { return r.ID },
		func(r *business.DigitalWill) {
			prior := r.Status
			mutate(r)
			r.Status = guardStatus(prior, r.Status)
		})
	if !found {
		return nil
	}
	return s.persist()
}

func (s *Store) ListWills() []business.DigitalWill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]business.DigitalWill(nil), s.doc.Wills...)
}

func (s *Store) GetWill(id string) (business.DigitalWill, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findByID(s.doc.Wills, id, func(r *business.DigitalWill) string { return r.ID })
}

// Scheduled payments

func (s *Store) AddScheduledPayment(record business.ScheduledPayment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.NewID(business.KindScheduledPayment)
	record.CreatedAt = s.now()
	if record.Status == "" {
		record.Status = business.StatusActive
	}
	s.doc.ScheduledPayments = append(s.doc.ScheduledPayments, record)
	if err := s.persist(); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (s *Store) UpdateScheduledPayment(id string, mutate func(*business.ScheduledPayment)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := updateByID(s.doc.ScheduledPayments, id, func(r *business.ScheduledPayment) string { return r.ID },
		func(r *business.ScheduledPayment) {
			prior := r.Status
			mutate(r)
			r.Status = guardStatus(prior, r.Status)
		})
	if !found {
		return nil
	}
	return s.persist()
}

func (s *Store) ListScheduledPayments() []business.ScheduledPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]business.ScheduledPayment(nil), s.doc.ScheduledPayments...)
}

func (s *Store) GetScheduledPayment(id string) (business.ScheduledPayment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findByID(s.doc.ScheduledPayments, id, func(r *business.ScheduledPayment) string { return r.ID })
}

// Virtual cards

func (s *Store) AddVirtualCard(record business.VirtualCard) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.NewID(business.KindVirtualCard)
	record.CreatedAt = s.now()
	if record.Status == "" {
		record.Status = business.StatusActive
	}
	s.doc.VirtualCards = append(s.doc.VirtualCards, record)
	if err := s.persist(); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (s *Store) UpdateVirtualCard(id string, mutate func(*business.VirtualCard)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := updateByID(s.doc.VirtualCards, id, func(r *business.VirtualCard) string { return r.ID },
		func(r *business.VirtualCard) {
			prior := r.Status
			mutate(r)
			r.Status = guardStatus(prior, r.Status)
		})
	if !found {
		return nil
	}
	return s.persist()
}

func (s *Store) ListVirtualCards() []business.VirtualCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]business.VirtualCard(nil), s.doc.VirtualCards...)
}

func (s *Store) GetVirtualCard(id string) (business.VirtualCard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return findByID(s.doc.VirtualCards, id, func(r *business.VirtualCard) string { return r.ID })
}
