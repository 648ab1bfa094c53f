package orders

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when an order id is unknown.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyResolved is returned when a reply arrives for an order
	// that already left the pending state.
	ErrAlreadyResolved = errors.New("order already resolved")
)

// Store is a mutex-guarded in-memory order registry. Orders live for
// the process lifetime; there is no delete.
type Store struct {
	mu      sync.Mutex
	orders  map[int64]*Order
	nextID  int64
	nowFunc func() time.Time
}

// NewStore returns an empty registry.
func NewStore() *Store {
	return &Store{
		orders:  make(map[int64]*Order),
		nowFunc: time.Now,
	}
}

// Create registers a new pending order and assigns its id.
func (s *Store) Create(rawText string, parsed Parsed, script string) Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	order := &Order{
		ID:        s.nextID,
		RawText:   rawText,
		Parsed:    parsed,
		Script:    script,
		Status:    StatusPending,
		CreatedAt: s.nowFunc().UTC(),
	}
	s.orders[order.ID] = order
	return *order
}

// Get returns a copy of the order with the given id.
func (s *Store) Get(id int64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return *order, nil
}

// List returns copies of all orders, newest first.
func (s *Store) List() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Order, 0, len(s.orders))
	for _, order := range s.orders {
		out = append(out, *order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// RecordCall stores the call-session id for an outbound call. The
// status is left untouched; only the reply handler moves it.
func (s *Store) RecordCall(id int64, callSID string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	order.LastCallSID = callSID
	return *order, nil
}

// OverridePhone replaces the parsed phone number before any call is
// placed. Rejected once the order has left pending or a call was made.
func (s *Store) OverridePhone(id int64, phone string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if order.Status != StatusPending || order.LastCallSID != "" {
		return Order{}, ErrAlreadyResolved
	}
	order.Parsed.Phone = phone
	return *order, nil
}

// ResolveReply applies a classified reply. The transition only happens
// from pending, so a retried telephony callback cannot double-resolve.
func (s *Store) ResolveReply(id int64, speech, digits string, status Status) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if order.Status != StatusPending {
		return *order, ErrAlreadyResolved
	}
	order.Status = status
	order.LastResult = &Result{
		Speech:   speech,
		Digits:   digits,
		Decision: string(status),
		At:       s.nowFunc().UTC(),
	}
	return *order, nil
}
