// Package Session owns the sign-in state machine: who is signed in, how they
// got there and what happens to session scoped state when they leave.
package Session

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"Lulan/Directory"
	"Lulan/Models"
)

type State int

const (
	SignedOut State = iota
	Authenticating
	SignedIn
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case SignedIn:
		return "signed_in"
	default:
		return "signed_out"
	}
}

// Graph is the navigation graph the screen layer mounts.
type Graph string

const (
	AuthGraph Graph = "auth"
	MainGraph Graph = "main"
)

// FlagStore persists the cold start "logged in" flag.
type FlagStore interface {
	SetLoggedIn(loggedIn bool) error
	LoggedIn() (bool, error)
}

// Roster is the read-only roster mirror used for username resolution and
// sign-up uniqueness checks.
type Roster interface {
	Roster() []Models.UserRecord
	FindUsername(username string) (Models.UserRecord, bool)
}

// IdentityObserver is told about every identity change before the change is
// reported to the caller.
type IdentityObserver interface {
	AttachIdentity(ctx context.Context, identity Models.Identity) error
	DetachIdentity()
}

type Manager struct {
	dir      Directory.Directory
	flags    FlagStore
	roster   Roster
	observer IdentityObserver
	google   *oauth2.Config

	mu       sync.Mutex
	state    State
	identity *Models.Identity
}

type Option func(*Manager)

// WithGoogle enables SignInWithGoogle.
func WithGoogle(cfg *oauth2.Config) Option {
	return func(m *Manager) {
		m.google = cfg
	}
}

func NewManager(dir Directory.Directory, flags FlagStore, roster Roster, observer IdentityObserver, opts ...Option) *Manager {
	m := &Manager{dir: dir, flags: flags, roster: roster, observer: observer}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Identity() (Models.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return Models.Identity{}, false
	}
	return *m.identity, true
}

// InitialGraph picks the graph at cold start from the persisted flag.
func (m *Manager) InitialGraph() Graph {
	loggedIn, err := m.flags.LoggedIn()
	if err != nil {
		log.Printf("Error reading login flag: %v", err)
		return AuthGraph
	}
	if loggedIn {
		return MainGraph
	}
	return AuthGraph
}

// Graph follows the live identity, which always wins over the flag.
func (m *Manager) Graph() Graph {
	if m.State() == SignedIn {
		return MainGraph
	}
	return AuthGraph
}

// begin moves into Authenticating and returns the state to fall back to.
func (m *Manager) begin() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Authenticating {
		return m.state, Models.ErrAuthInProgress
	}
	previous := m.state
	m.state = Authenticating
	return previous, nil
}

func (m *Manager) abort(previous State) {
	m.mu.Lock()
	m.state = previous
	m.mu.Unlock()
}

// complete attaches the observer and only then publishes SignedIn.
func (m *Manager) complete(ctx context.Context, identity Models.Identity) (Models.Identity, error) {
	if err := m.observer.AttachIdentity(ctx, identity); err != nil {
		m.observer.DetachIdentity()
		m.mu.Lock()
		m.state = SignedOut
		m.identity = nil
		m.mu.Unlock()
		return Models.Identity{}, err
	}

	m.mu.Lock()
	attached := identity
	m.identity = &attached
	m.state = SignedIn
	m.mu.Unlock()

	if err := m.flags.SetLoggedIn(true); err != nil {
		log.Printf("Error saving login flag: %v", err)
	}
	return identity, nil
}

// SignIn accepts an email or a roster username.
func (m *Manager) SignIn(ctx context.Context, identifier, password string) (Models.Identity, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Models.Identity{}, Models.Invalid("identifier", "Please fill in all fields")
	}

	previous, err := m.begin()
	if err != nil {
		return Models.Identity{}, err
	}

	email := identifier
	if !strings.Contains(identifier, "@") {
		record, ok := m.roster.FindUsername(identifier)
		if !ok {
			m.abort(previous)
			return Models.Identity{}, Models.AuthFailure(Models.ErrInvalidCredentials)
		}
		email = record.Email
	}

	identity, err := m.dir.SignIn(ctx, email, password)
	if err != nil {
		m.abort(previous)
		return Models.Identity{}, Models.AuthFailure(err)
	}
	return m.complete(ctx, identity)
}

// SignOut always ends signed out. The local flag is cleared best effort and
// a remote failure is reported after the local state has been reset.
func (m *Manager) SignOut(ctx context.Context) error {
	if _, err := m.begin(); err != nil {
		return err
	}
	identity, ok := m.Identity()

	var remoteErr error
	if ok {
		remoteErr = m.dir.SignOut(ctx, identity)
	}
	m.signedOut()

	if remoteErr != nil {
		return Models.AuthFailure(remoteErr)
	}
	return nil
}

// DeleteAccount removes the remote account and its documents, then signs
// out locally. A remote failure leaves the session signed in.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	identity, ok := m.Identity()
	if !ok {
		return Models.ErrUnauthenticated
	}
	previous, err := m.begin()
	if err != nil {
		return err
	}

	if err := m.dir.DeleteAccount(ctx, identity); err != nil {
		m.abort(previous)
		return Models.AuthFailure(err)
	}
	for _, path := range []string{Directory.ProfilePath(identity.UID), Directory.UserPath(identity.UID)} {
		if err := m.dir.Delete(ctx, path); err != nil {
			log.Printf("Error removing %s after account deletion: %v", path, err)
		}
	}
	m.signedOut()
	return nil
}

// signedOut resolves an operation holding Authenticating to SignedOut.
func (m *Manager) signedOut() {
	if err := m.flags.SetLoggedIn(false); err != nil {
		log.Printf("Error clearing login flag: %v", err)
	}
	m.observer.DetachIdentity()
	m.mu.Lock()
	m.identity = nil
	m.state = SignedOut
	m.mu.Unlock()
}

func isNotFound(err error) bool {
	return errors.Is(err, Models.ErrNotFound)
}
