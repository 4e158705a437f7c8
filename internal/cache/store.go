package cache

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/dashboard-core-go/internal/entity"
)

// State is every cached collection plus the initial-load flag.
type State struct {
	Products  []entity.Product
	Orders    []entity.Order
	Customers []entity.Customer
	Loading   bool
}

// Initial is the state before the first bulk load completes.
func Initial() State {
	return State{
		Products:  []entity.Product{},
		Orders:    []entity.Order{},
		Customers: []entity.Customer{},
		Loading:   true,
	}
}

// Event is anything Store.Dispatch accepts. The set is closed:
// ProductAction, OrderAction, CustomerAction and SetLoading.
type Event interface {
	apply(State) State
}

type ProductAction struct{ Action[entity.Product] }

type OrderAction struct{ Action[entity.Order] }

type CustomerAction struct{ Action[entity.Customer] }

// SetLoading sets the initial-load flag.
type SetLoading bool

func (a ProductAction) apply(s State) State {
	s.Products = Reduce(s.Products, a.Action)
	return s
}

func (a OrderAction) apply(s State) State {
	s.Orders = Reduce(s.Orders, a.Action)
	return s
}

func (a CustomerAction) apply(s State) State {
	s.Customers = Reduce(s.Customers, a.Action)
	return s
}

func (a SetLoading) apply(s State) State {
	s.Loading = bool(a)
	return s
}

// Store holds the combined state. Dispatches are serialised; subscribers
// run after the lock is released, in no particular order.
type Store struct {
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	state   State
	gen     uint64
	subs    map[int]func(State)
	nextSub int
}

func NewStore(logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{logger: logger, state: Initial(), subs: map[int]func(State){}}
}

func (s *Store) Dispatch(e Event) {
	s.mu.Lock()
	s.dispatchLocked(e)
}

// Generation identifies the current cache lifetime. Reset starts a new one.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// DispatchIf applies events as one step, but only while the cache is still
// in generation gen. Events from a lifetime that has since been reset are
// dropped and false is returned.
func (s *Store) DispatchIf(gen uint64, events ...Event) bool {
	s.mu.Lock()
	if s.gen != gen {
		cur := s.gen
		s.mu.Unlock()
		s.logger.Debugw("cache dispatch dropped", "events", len(events), "gen", gen, "current", cur)
		return false
	}
	s.dispatchLocked(events...)
	return true
}

// dispatchLocked is entered with mu held and releases it. Subscribers see
// the state after each event, in order.
func (s *Store) dispatchLocked(events ...Event) {
	snaps := make([]State, len(events))
	for i, e := range events {
		s.state = e.apply(s.state)
		snaps[i] = s.snapshotLocked()
	}
	fns := s.subscribers()
	s.mu.Unlock()

	for i, e := range events {
		snap := snaps[i]
		s.logger.Debugw("cache dispatch", "event", describe(e),
			"products", len(snap.Products), "orders", len(snap.Orders), "customers", len(snap.Customers))
		for _, fn := range fns {
			fn(snap)
		}
	}
}

// Snapshot returns a copy of the current state. The collections are fresh
// slices; the records inside must be treated as read-only.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{
		Products:  slices.Clone(s.state.Products),
		Orders:    slices.Clone(s.state.Orders),
		Customers: slices.Clone(s.state.Customers),
		Loading:   s.state.Loading,
	}
}

// Reset drops everything, e.g. after sign-out, and starts a new generation.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = Initial()
	s.gen++
	snap := s.snapshotLocked()
	fns := s.subscribers()
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) subscribers() []func(State) {
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

func describe(e Event) string {
	switch a := e.(type) {
	case ProductAction:
		return "products." + a.Op.String()
	case OrderAction:
		return "orders." + a.Op.String()
	case CustomerAction:
		return "customers." + a.Op.String()
	case SetLoading:
		return "loading"
	}
	return "unknown"
}
