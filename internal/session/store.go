package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pilotdeck/pilotdeck/internal/shared"
)

// Authenticator is the external auth collaborator.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*User, string, error)
	Logout(ctx context.Context) error
}

// Flash represents a one-time notification queued on the session.
type Flash struct {
	Kind    string
	Message string
}

// UserPatch carries a partial user update. Nil fields are left untouched.
type UserPatch struct {
	Email  *string
	Name   *string
	Avatar *string
	Role   *Role
	Status *Status
}

// Store is the authentication store for the operator session. It is an
// explicit, injectable object: construct it with NewStore, observe it with
// Subscribe, tear it down by letting it go out of scope.
//
// The durable subset {user, token, authenticated} is rehydrated synchronously
// during construction, before the loading flag clears, so guards never
// observe a transient logged-out state for a persisted session.
type Store struct {
	mu      sync.Mutex
	state   State
	auth    Authenticator
	storage Storage
	logger  *slog.Logger
	subs    map[int]func(State)
	nextSub int
	flashes []Flash
	now     func() time.Time
}

// NewStore constructs the store and rehydrates persisted state. Storage
// failures during rehydration degrade to a logged-out session and are logged,
// never returned: the shell must come up even when the durable store is down.
func NewStore(ctx context.Context, auth Authenticator, storage Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		state:   State{Loading: true},
		auth:    auth,
		storage: storage,
		logger:  logger,
		subs:    make(map[int]func(State)),
		now:     time.Now,
	}
	s.rehydrate(ctx)
	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.state.Loading = false
		s.mu.Unlock()
	}()

	if s.storage == nil {
		return
	}
	stored, err := s.storage.Load(ctx)
	if err != nil {
		s.logger.Warn("session rehydrate failed", slog.Any("error", err))
		return
	}
	if stored == nil {
		return
	}
	usable := stored.Authenticated && stored.User != nil && stored.Token != "" &&
		stored.User.Role.Valid()
	if usable && tokenExpired(stored.Token, s.now()) {
		s.logger.Info("persisted session token expired, discarding")
		usable = false
	}
	if !usable {
		if err := s.storage.Clear(ctx); err != nil {
			s.logger.Warn("clear stale session", slog.Any("error", err))
		}
		return
	}
	s.mu.Lock()
	s.state.User = cloneUser(stored.User)
	s.state.Token = stored.Token
	s.state.Authenticated = true
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Token returns the current bearer token, or "" when logged out. It
// satisfies the apiclient.TokenSource contract.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token
}

// Subscribe registers a listener invoked with a state snapshot after every
// committed transition. The returned func unsubscribes.
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

// Login authenticates against the external collaborator. On success the
// durable subset is persisted; on failure the error is recorded on the state
// and returned to the caller. A second Login while one is pending is ignored
// and reports shared.ErrLoginInFlight.
func (s *Store) Login(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return shared.ErrLoginInFlight
	}
	s.state.Loading = true
	s.state.Err = ""
	s.mu.Unlock()
	s.publish()

	user, token, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.mu.Lock()
		s.state.Loading = false
		s.state.Err = err.Error()
		s.mu.Unlock()
		s.publish()
		return err
	}

	s.mu.Lock()
	s.state.User = cloneUser(user)
	s.state.Token = token
	s.state.Authenticated = true
	s.state.Loading = false
	s.state.Err = ""
	s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.Save(ctx, persistedState{User: user, Token: token, Authenticated: true}); err != nil {
			s.logger.Warn("persist session", slog.Any("error", err))
		}
	}
	s.publish()
	return nil
}

// Logout signs out. The collaborator call is best effort: its failure is
// logged and never blocks the local sign-out, which is unconditional.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state.Loading = true
	s.mu.Unlock()
	s.publish()

	if s.auth != nil {
		if err := s.auth.Logout(ctx); err != nil {
			s.logger.Warn("remote logout failed", slog.Any("error", err))
		}
	}
	s.clear(ctx)
	return nil
}

// ForceLogout clears the session without contacting the collaborator. It is
// the network layer's 401 path.
func (s *Store) ForceLogout(ctx context.Context) {
	s.clear(ctx)
}

func (s *Store) clear(ctx context.Context) {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()

	if s.storage != nil {
		if err := s.storage.Clear(ctx); err != nil {
			s.logger.Warn("clear persisted session", slog.Any("error", err))
		}
	}
	s.publish()
}

// UpdateUser merges the patch into the current user. No-op when logged out.
// The change is not persisted until the next login writes the durable subset;
// callers needing durability update the backend, which reissues the user.
func (s *Store) UpdateUser(patch UserPatch) {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return
	}
	u := *s.state.User
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	s.state.User = &u
	s.mu.Unlock()
	s.publish()
}

// AddFlash queues a one-time notification.
func (s *Store) AddFlash(f Flash) {
	s.mu.Lock()
	s.flashes = append(s.flashes, f)
	s.mu.Unlock()
}

// PopFlash returns and removes the oldest queued notification.
func (s *Store) PopFlash() *Flash {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.flashes) == 0 {
		return nil
	}
	f := s.flashes[0]
	s.flashes = s.flashes[1:]
	return &f
}

func (s *Store) snapshotLocked() State {
	st := s.state
	st.User = cloneUser(st.User)
	return st
}

func (s *Store) publish() {
	s.mu.Lock()
	st := s.snapshotLocked()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
