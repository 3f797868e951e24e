package Directory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"Lulan/Models"
)

var _ Directory = (*Memory)(nil)

type memoryAccount struct {
	identity Models.Identity
	hash     []byte
}

type memorySubscription struct {
	path     string
	onChange func(Snapshot)

	// mu is held for the whole callback so that cancel waits for it.
	mu     sync.Mutex
	closed bool
}

func (s *memorySubscription) deliver(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.onChange(snapshot)
}

func (s *memorySubscription) cancel() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Memory is an in-process Directory. Listeners are invoked synchronously in
// write order; they must not call back into the same Memory.
type Memory struct {
	mu       sync.Mutex
	delivery sync.Mutex

	docs      map[string][]byte
	accounts  map[string]*memoryAccount
	providers map[string]Models.Identity
	subs      map[uint64]*memorySubscription
	nextSub   uint64
	failures  map[string]error
}

func NewMemory() *Memory {
	return &Memory{
		docs:      make(map[string][]byte),
		accounts:  make(map[string]*memoryAccount),
		providers: make(map[string]Models.Identity),
		subs:      make(map[uint64]*memorySubscription),
		failures:  make(map[string]error),
	}
}

// FailWrites makes every Set and Delete under prefix return err until
// ClearFailures is called.
func (m *Memory) FailWrites(prefix string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[prefix] = err
}

func (m *Memory) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[string]error)
}

// RegisterProvider makes idToken exchangeable through SignInWithIDP.
func (m *Memory) RegisterProvider(providerID, idToken, email, displayName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[providerID+"|"+idToken] = Models.Identity{Email: email, DisplayName: displayName}
}

// Subscribers returns the number of live listeners on path.
func (m *Memory) Subscribers(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, sub := range m.subs {
		if sub.path == path {
			count++
		}
	}
	return count
}

func (m *Memory) SignIn(ctx context.Context, email, password string) (Models.Identity, error) {
	m.mu.Lock()
	account, ok := m.accounts[strings.ToLower(email)]
	m.mu.Unlock()
	if !ok {
		return Models.Identity{}, Models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(account.hash, []byte(password)); err != nil {
		return Models.Identity{}, Models.ErrInvalidCredentials
	}
	return issueTokens(account.identity), nil
}

func (m *Memory) SignUp(ctx context.Context, email, password, displayName string) (Models.Identity, error) {
	if len(password) < 6 {
		return Models.Identity{}, fmt.Errorf("WEAK_PASSWORD: password should be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return Models.Identity{}, fmt.Errorf("hash password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(email)
	if _, exists := m.accounts[key]; exists {
		return Models.Identity{}, ErrEmailExists
	}
	identity := Models.Identity{UID: uuid.NewString(), Email: email, DisplayName: displayName}
	m.accounts[key] = &memoryAccount{identity: identity, hash: hash}
	return issueTokens(identity), nil
}

func (m *Memory) SignInWithIDP(ctx context.Context, providerID, idToken string) (Models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	claims, ok := m.providers[providerID+"|"+idToken]
	if !ok {
		return Models.Identity{}, Models.ErrInvalidCredentials
	}
	key := strings.ToLower(claims.Email)
	account, exists := m.accounts[key]
	if !exists {
		account = &memoryAccount{identity: Models.Identity{
			UID:         uuid.NewString(),
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
		}}
		m.accounts[key] = account
	}
	return issueTokens(account.identity), nil
}

func (m *Memory) SignOut(ctx context.Context, identity Models.Identity) error {
	if _, ok := m.accountByUID(identity.UID); !ok {
		return fmt.Errorf("USER_NOT_FOUND: %s", identity.UID)
	}
	return nil
}

func (m *Memory) DeleteAccount(ctx context.Context, identity Models.Identity) error {
	key, ok := m.accountByUID(identity.UID)
	if !ok {
		return fmt.Errorf("USER_NOT_FOUND: %s", identity.UID)
	}
	m.mu.Lock()
	delete(m.accounts, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) accountByUID(uid string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, account := range m.accounts {
		if account.identity.UID == uid {
			return key, true
		}
	}
	return "", false
}

func (m *Memory) Get(ctx context.Context, path string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[path]
	if !ok {
		return Document{}, fmt.Errorf("%s: %w", path, Models.ErrNotFound)
	}
	return Document{ID: lastSegment(path), Path: path, Data: data}, nil
}

func (m *Memory) List(ctx context.Context, collection string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collectionLocked(collection), nil
}

func (m *Memory) Set(ctx context.Context, path string, value interface{}) error {
	if IsCollection(path) {
		return fmt.Errorf("set %s: not a document path", path)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	m.mu.Lock()
	if err := m.failureLocked(path); err != nil {
		m.mu.Unlock()
		return err
	}
	m.docs[path] = data
	m.publishLocked(path)
	return nil
}

func (m *Memory) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	if err := m.failureLocked(path); err != nil {
		m.mu.Unlock()
		return err
	}
	delete(m.docs, path)
	m.publishLocked(path)
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, path string, onChange func(Snapshot)) (Unsubscribe, error) {
	sub := &memorySubscription{path: path, onChange: onChange}

	m.mu.Lock()
	m.nextSub++
	id := m.nextSub
	m.subs[id] = sub
	snapshot := m.snapshotLocked(path)
	m.delivery.Lock()
	m.mu.Unlock()
	sub.deliver(snapshot)
	m.delivery.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			sub.cancel()
		})
	}
	stop := context.AfterFunc(ctx, unsubscribe)
	return func() {
		stop()
		unsubscribe()
	}, nil
}

func (m *Memory) failureLocked(path string) error {
	for prefix, err := range m.failures {
		if strings.HasPrefix(path, prefix) {
			return err
		}
	}
	return nil
}

// publishLocked is called with m.mu held and releases it. Snapshots are
// built under the state lock and delivered under the delivery lock so that
// listeners observe writes in order.
func (m *Memory) publishLocked(path string) {
	collection := parent(path)
	type pending struct {
		sub      *memorySubscription
		snapshot Snapshot
	}
	var deliveries []pending
	for _, sub := range m.subs {
		if sub.path == path || sub.path == collection {
			deliveries = append(deliveries, pending{sub: sub, snapshot: m.snapshotLocked(sub.path)})
		}
	}
	m.delivery.Lock()
	m.mu.Unlock()
	defer m.delivery.Unlock()
	for _, d := range deliveries {
		d.sub.deliver(d.snapshot)
	}
}

func (m *Memory) snapshotLocked(path string) Snapshot {
	if IsCollection(path) {
		docs := m.collectionLocked(path)
		return Snapshot{Path: path, Exists: len(docs) > 0, Docs: docs}
	}
	data, ok := m.docs[path]
	if !ok {
		return Snapshot{Path: path}
	}
	return Snapshot{Path: path, Exists: true, Docs: []Document{{ID: lastSegment(path), Path: path, Data: data}}}
}

func (m *Memory) collectionLocked(collection string) []Document {
	var docs []Document
	for path, data := range m.docs {
		if parent(path) == collection {
			docs = append(docs, Document{ID: lastSegment(path), Path: path, Data: data})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func issueTokens(identity Models.Identity) Models.Identity {
	identity.IDToken = uuid.NewString()
	identity.RefreshToken = uuid.NewString()
	return identity
}
