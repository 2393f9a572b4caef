package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/worldwise/internal/logging"
	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// ErrSuperseded is returned when a newer request made a result stale and the
// result was discarded without touching the state.
var ErrSuperseded = errors.New("superseded by a newer request")

// Client is the subset of the cities API the store calls.
// *client.Client satisfies it.
type Client interface {
	ListCities(ctx context.Context) ([]types.City, error)
	GetCity(ctx context.Context, id types.CityID) (types.City, error)
	CreateCity(ctx context.Context, city types.City) (types.City, error)
	DeleteCity(ctx context.Context, id types.CityID) error
}

// Store holds the city state and the operations that change it.
//
// Operations are safe for concurrent use. Network calls run outside the lock;
// dispatches are serialized. Load results are discarded when a newer Load was
// issued, and GetCity results are discarded when any newer GetCity, CreateCity
// or DeleteCity was issued. Mutations always apply.
type Store struct {
	client Client
	reduce Reducer
	logger *slog.Logger

	// notifyMu orders dispatch plus subscriber delivery.
	notifyMu sync.Mutex

	mu      sync.Mutex
	state   State
	listGen uint64
	cityGen uint64
	subs    map[int]func(State)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for dispatched actions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger.With(slog.String("component", "store")) }
}

// WithClearErrorOnSuccess makes successful actions reset State.Error.
// By default an error stays until the next failure overwrites it.
func WithClearErrorOnSuccess() Option {
	return func(s *Store) { s.reduce = ClearErrorOnSuccess(s.reduce) }
}

// New returns a store in the initial state. It panics when c is nil.
func New(c Client, opts ...Option) *Store {
	if c == nil {
		panic("store: nil client")
	}
	s := &Store{
		client: c,
		reduce: Reduce,
		logger: logging.Discard(),
		state:  Initial(),
		subs:   make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a new store after running the initial Load. The store is
// returned even when the load fails; its state then carries the error.
func Open(ctx context.Context, c Client, opts ...Option) (*Store, error) {
	s := New(c, opts...)
	return s, s.Load(ctx)
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive the state after every applied action.
// fn runs synchronously on the dispatching goroutine and must not call store
// operations. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Load fetches every city and replaces the list.
func (s *Store) Load(ctx context.Context) error {
	gen := s.start(&s.listGen)
	cities, err := s.client.ListCities(ctx)
	current := func() bool { return s.listGen == gen }
	if err != nil {
		return s.fail(current, MsgLoadCities, "load cities", err)
	}
	if !s.dispatchIf(CitiesLoaded{Cities: cities}, current) {
		return ErrSuperseded
	}
	return nil
}

// GetCity makes the city with the given id current. When id already names
// the current city it returns at once without a request.
func (s *Store) GetCity(ctx context.Context, id types.CityID) error {
	s.mu.Lock()
	hit := s.state.CurrentCity.ID.Equal(id)
	s.mu.Unlock()
	if hit {
		s.logger.DebugContext(ctx, "current city cache hit", slog.String("id", id.String()))
		return nil
	}

	gen := s.start(&s.cityGen)
	city, err := s.client.GetCity(ctx, id)
	current := func() bool { return s.cityGen == gen }
	if err != nil {
		return s.fail(current, MsgLoadCity, "get city "+id.String(), err)
	}
	if !s.dispatchIf(CityLoaded{City: city}, current) {
		return ErrSuperseded
	}
	return nil
}

// CreateCity stores a new city through the API and appends the created
// record, which carries the assigned id.
func (s *Store) CreateCity(ctx context.Context, city types.City) (types.City, error) {
	s.start(&s.cityGen)
	created, err := s.client.CreateCity(ctx, city)
	if err != nil {
		return types.City{}, s.fail(always, MsgCreateCity, "create city", err)
	}
	s.dispatchIf(CityCreated{City: created}, always)
	return created, nil
}

// DeleteCity removes the city with the given id through the API and then
// from the list.
func (s *Store) DeleteCity(ctx context.Context, id types.CityID) error {
	s.start(&s.cityGen)
	if err := s.client.DeleteCity(ctx, id); err != nil {
		return s.fail(always, MsgDeleteCity, "delete city "+id.String(), err)
	}
	s.dispatchIf(CityDeleted{ID: id}, always)
	return nil
}

func always() bool { return true }

// start advances gen and dispatches Loading, returning the new generation.
func (s *Store) start(gen *uint64) uint64 {
	var g uint64
	s.dispatchIf(Loading{}, func() bool {
		*gen++
		g = *gen
		return true
	})
	return g
}

// fail dispatches Rejected with msg unless the request went stale.
func (s *Store) fail(current func() bool, msg, op string, err error) error {
	if !s.dispatchIf(Rejected{Message: msg}, current) {
		return ErrSuperseded
	}
	if errors.Is(err, types.ErrRequestFailed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, types.ErrRequestFailed, err)
}

// dispatchIf applies a when ok reports true, checked under the state lock,
// and then notifies subscribers. It reports whether a was applied.
func (s *Store) dispatchIf(a Action, ok func() bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !ok() {
		s.mu.Unlock()
		s.logger.Debug("discarded stale action", slog.String("action", a.Kind()))
		return false
	}
	s.state = s.reduce(s.state, a)
	snapshot := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("dispatched action",
		slog.String("action", a.Kind()),
		slog.Bool("is_loading", snapshot.IsLoading),
		slog.Int("cities", len(snapshot.Cities)))
	for _, fn := range subs {
		fn(snapshot.Clone())
	}
	return true
}
