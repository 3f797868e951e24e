package Session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lulan/Directory"
	"Lulan/Models"
	"Lulan/Store"
)

type fakeFlags struct {
	mu       sync.Mutex
	loggedIn bool
	err      error
}

func (f *fakeFlags) SetLoggedIn(loggedIn bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.loggedIn = loggedIn
	return nil
}

func (f *fakeFlags) LoggedIn() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedIn, f.err
}

type fixture struct {
	dir     *Directory.Memory
	store   *Store.Store
	flags   *fakeFlags
	manager *Manager
}

func newFixture(t *testing.T, dir Directory.Directory, memory *Directory.Memory) *fixture {
	t.Helper()
	store := Store.New(dir)
	require.NoError(t, store.Start(context.Background()))
	t.Cleanup(store.Close)
	flags := &fakeFlags{}
	return &fixture{
		dir:     memory,
		store:   store,
		flags:   flags,
		manager: NewManager(dir, flags, store, store, WithGoogle(GoogleConfig("client-id", "secret", "http://localhost/callback"))),
	}
}

func setup(t *testing.T) *fixture {
	memory := Directory.NewMemory()
	return newFixture(t, memory, memory)
}

func signUpRequest(email, username, contact string) Models.SignUpRequest {
	return Models.SignUpRequest{
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Name:            "Nurse " + username,
		Username:        username,
		Contact:         contact,
		Gender:          "Female",
		AcceptedTerms:   true,
	}
}

func TestSignUp_SignsInAndWritesDocuments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	identity, err := f.manager.SignUp(ctx, signUpRequest("a@x.com", "nurse1", "0917"))
	require.NoError(t, err)
	assert.Equal(t, SignedIn, f.manager.State())
	assert.Equal(t, MainGraph, f.manager.Graph())
	assert.True(t, f.flags.loggedIn)

	doc, err := f.dir.Get(ctx, Directory.UserPath(identity.UID))
	require.NoError(t, err)
	var record Models.UserRecord
	require.NoError(t, doc.Decode(&record))
	assert.Equal(t, "nurse1", record.Username)
	assert.Equal(t, identity.UID, record.ID)

	attached, ok := f.store.Identity()
	require.True(t, ok)
	assert.Equal(t, identity.UID, attached.UID)
	assert.Equal(t, "Nurse nurse1", f.store.Profile().Name)
}

func TestSignUp_DuplicateUsername(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.manager.SignUp(ctx, signUpRequest("a@x.com", "nurse1", "0917"))
	require.NoError(t, err)
	require.NoError(t, f.manager.SignOut(ctx))

	_, err = f.manager.SignUp(ctx, signUpRequest("b@x.com", "nurse1", "0918"))
	var duplicate *Models.DuplicateFieldError
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, "username", duplicate.Field)
	assert.Equal(t, SignedOut, f.manager.State())

	_, err = f.dir.SignIn(ctx, "b@x.com", "secret123")
	assert.ErrorIs(t, err, Models.ErrInvalidCredentials, "no account is created for a rejected sign-up")
}

func TestSignUp_DuplicateEmailAndContact(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.manager.SignUp(ctx, signUpRequest("a@x.com", "nurse1", "0917"))
	require.NoError(t, err)

	var duplicate *Models.DuplicateFieldError
	_, err = f.manager.SignUp(ctx, signUpRequest("A@X.com", "nurse2", "0918"))
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, "email", duplicate.Field)

	_, err = f.manager.SignUp(ctx, signUpRequest("c@x.com", "nurse3", "0917"))
	require.ErrorAs(t, err, &duplicate)
	assert.Equal(t, "contact", duplicate.Field)
}

func TestSignUp_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	var validation *Models.ValidationError

	mismatch := signUpRequest("a@x.com", "nurse1", "0917")
	mismatch.ConfirmPassword = "different"
	_, err := f.manager.SignUp(ctx, mismatch)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "confirm_password", validation.Field)
	assert.Equal(t, "Passwords do not match", validation.Message)

	noTerms := signUpRequest("a@x.com", "nurse1", "0917")
	noTerms.AcceptedTerms = false
	_, err = f.manager.SignUp(ctx, noTerms)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "accepted_terms", validation.Field)

	badEmail := signUpRequest("not-an-email", "nurse1", "0917")
	_, err = f.manager.SignUp(ctx, badEmail)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "email", validation.Field)

	assert.Equal(t, SignedOut, f.manager.State())
	assert.Empty(t, f.store.Roster())
}

func TestSignUp_RollsBackOnWriteFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.dir.FailWrites(Directory.ProfilesPath, errors.New("offline"))

	_, err := f.manager.SignUp(ctx, signUpRequest("a@x.com", "nurse1", "0917"))
	assert.ErrorIs(t, err, Models.ErrRemoteWriteFailed)
	assert.Equal(t, SignedOut, f.manager.State())
	assert.Empty(t, f.store.Roster())

	_, err = f.dir.SignIn(ctx, "a@x.com", "secret123")
	assert.ErrorIs(t, err, Models.ErrInvalidCredentials)
}

func TestSignIn_EmailAndUsername(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.manager.SignUp(ctx, signUpRequest("a@x.com", "nurse1", "0917"))
	require.NoError(t, err)
	require.NoError(t, f.manager.SignOut(ctx))

	byEmail, err := f.manager.SignIn(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.UID, byEmail.UID)
	require.NoError(t, f.manager.SignOut(ctx))

	byUsername, err := f.manager.SignIn(ctx, "nurse1", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.UID, byUsername.UID)
	assert.Equal(t, SignedIn, f.manager.State())
}

func TestSignIn_Failures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.manager.SignIn(ctx, "ghost", "secret123")
	assert.ErrorIs(t, err, Models.ErrInvalidCredentials)
	assert.ErrorIs(t, err, Models.ErrAuth)

	_, err = f.manager.SignIn(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, Models.ErrInvalidCredentials)

	var validation *Models.ValidationError
	_, err = f.manager.SignIn(ctx, "  ", "")
	assert.ErrorAs(t, err, &validation)

	assert.Equal(t, SignedOut, f.manager.State())
	assert.False(t, f.flags.loggedIn)
}

func TestSignOut_ResetsProfileAndDetaches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	identity, err := f.manager.SignUp(ctx, signUpRequest("a@x.com", "nurse1", "0917"))
	require.NoError(t, err)
	path := Directory.ProfilePath(identity.UID)
	require.Equal(t, 1, f.dir.Subscribers(path))
	require.False(t, f.store.Profile().IsZero())

	require.NoError(t, f.manager.SignOut(ctx))
	assert.True(t, f.store.Profile().IsZero())
	assert.Equal(t, 0, f.dir.Subscribers(path))
	assert.Equal(t, SignedOut, f.manager.State())
	assert.Equal(t, AuthGraph, f.manager.Graph())
	assert.False(t, f.flags.loggedIn)
}

func TestSignOut_RemoteFailureStillSignsOut(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	identity, err := f.manager.SignUp(ctx, signUpRequest("a@x.com", "nurse1", "0917"))
	require.NoError(t, err)
	require.NoError(t, f.dir.DeleteAccount(ctx, identity))
	f.flags.err = errors.New("disk full")

	err = f.manager.SignOut(ctx)
	assert.ErrorIs(t, err, Models.ErrAuth)
	assert.Equal(t, SignedOut, f.manager.State())
	assert.True(t, f.store.Profile().IsZero())
	_, ok := f.manager.Identity()
	assert.False(t, ok)
}

func TestDeleteAccount(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.manager.DeleteAccount(ctx), Models.ErrUnauthenticated)

	identity, err := f.manager.SignUp(ctx, signUpRequest("a@x.com", "nurse1", "0917"))
	require.NoError(t, err)
	require.NoError(t, f.manager.DeleteAccount(ctx))

	assert.Equal(t, SignedOut, f.manager.State())
	_, err = f.dir.Get(ctx, Directory.UserPath(identity.UID))
	assert.ErrorIs(t, err, Models.ErrNotFound)
	_, err = f.dir.SignIn(ctx, "a@x.com", "secret123")
	assert.ErrorIs(t, err, Models.ErrInvalidCredentials)
}

func TestSignInWithGoogleToken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.dir.RegisterProvider(Directory.GoogleProvider, "token-1", "g@x.com", "Gina")

	identity, err := f.manager.SignInWithGoogleToken(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, SignedIn, f.manager.State())

	roster := f.store.Roster()
	require.Len(t, roster, 1)
	assert.Equal(t, identity.UID, roster[0].ID)
	assert.Equal(t, "Gina", roster[0].Name)
	assert.True(t, f.store.Profile().IsZero())

	// A later sign-in keeps the existing documents.
	require.NoError(t, f.store.UpdateUserProfile(ctx, Models.UserProfile{Name: "Gina G"}))
	require.NoError(t, f.manager.SignOut(ctx))
	_, err = f.manager.SignInWithGoogleToken(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, "Gina G", f.store.Profile().Name)

	require.NoError(t, f.manager.SignOut(ctx))
	_, err = f.manager.SignInWithGoogleToken(ctx, "bogus")
	assert.ErrorIs(t, err, Models.ErrAuth)
	assert.Equal(t, SignedOut, f.manager.State())
}

func TestGoogleAuthURL(t *testing.T) {
	f := setup(t)
	url, err := f.manager.GoogleAuthURL("state-1")
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "client_id=client-id"))
	assert.True(t, strings.Contains(url, "state=state-1"))

	bare := NewManager(f.dir, f.flags, f.store, f.store)
	_, err = bare.GoogleAuthURL("x")
	assert.ErrorIs(t, err, ErrGoogleDisabled)
	_, err = bare.SignInWithGoogle(context.Background(), "code")
	assert.ErrorIs(t, err, ErrGoogleDisabled)
}

func TestInitialGraph(t *testing.T) {
	f := setup(t)
	assert.Equal(t, AuthGraph, f.manager.InitialGraph())

	f.flags.loggedIn = true
	assert.Equal(t, MainGraph, f.manager.InitialGraph())
	assert.Equal(t, AuthGraph, f.manager.Graph(), "the live identity wins over the flag")

	f.flags.err = errors.New("corrupt")
	assert.Equal(t, AuthGraph, f.manager.InitialGraph())
}

// blockingDirectory parks SignIn until release is closed.
type blockingDirectory struct {
	*Directory.Memory
	entered chan struct{}
	release chan struct{}
}

func (b *blockingDirectory) SignIn(ctx context.Context, email, password string) (Models.Identity, error) {
	close(b.entered)
	<-b.release
	return b.Memory.SignIn(ctx, email, password)
}

func TestSignIn_RejectsConcurrentAuthentication(t *testing.T) {
	memory := Directory.NewMemory()
	_, err := memory.SignUp(context.Background(), "a@x.com", "secret123", "")
	require.NoError(t, err)
	blocking := &blockingDirectory{Memory: memory, entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, blocking, memory)

	done := make(chan error, 1)
	go func() {
		_, err := f.manager.SignIn(context.Background(), "a@x.com", "secret123")
		done <- err
	}()
	<-blocking.entered

	assert.Equal(t, Authenticating, f.manager.State())
	_, err = f.manager.SignIn(context.Background(), "a@x.com", "secret123")
	assert.ErrorIs(t, err, Models.ErrAuthInProgress)
	assert.ErrorIs(t, f.manager.SignOut(context.Background()), Models.ErrAuthInProgress)

	close(blocking.release)
	require.NoError(t, <-done)
	assert.Equal(t, SignedIn, f.manager.State())
}

// parkedSignOut parks SignOut and DeleteAccount until release is closed.
type parkedSignOut struct {
	*Directory.Memory
	entered   chan struct{}
	release   chan struct{}
	deleteErr error
}

func (p *parkedSignOut) SignOut(ctx context.Context, identity Models.Identity) error {
	close(p.entered)
	<-p.release
	return p.Memory.SignOut(ctx, identity)
}

func (p *parkedSignOut) DeleteAccount(ctx context.Context, identity Models.Identity) error {
	close(p.entered)
	<-p.release
	if p.deleteErr != nil {
		return p.deleteErr
	}
	return p.Memory.DeleteAccount(ctx, identity)
}

func newParkedFixture(t *testing.T) (*fixture, *parkedSignOut) {
	t.Helper()
	memory := Directory.NewMemory()
	parked := &parkedSignOut{Memory: memory, entered: make(chan struct{}), release: make(chan struct{})}
	f := newFixture(t, parked, memory)
	_, err := f.manager.SignUp(context.Background(), signUpRequest("a@x.com", "nurse1", "0917"))
	require.NoError(t, err)
	require.True(t, f.flags.loggedIn)
	return f, parked
}

func TestSignOut_RejectsConcurrentSignIn(t *testing.T) {
	f, parked := newParkedFixture(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.manager.SignOut(ctx) }()
	<-parked.entered

	assert.Equal(t, Authenticating, f.manager.State())
	_, err := f.manager.SignIn(ctx, "a@x.com", "secret123")
	assert.ErrorIs(t, err, Models.ErrAuthInProgress)
	_, err = f.manager.SignUp(ctx, signUpRequest("b@x.com", "nurse2", "0918"))
	assert.ErrorIs(t, err, Models.ErrAuthInProgress)
	assert.ErrorIs(t, f.manager.DeleteAccount(ctx), Models.ErrAuthInProgress)

	close(parked.release)
	require.NoError(t, <-done)
	assert.Equal(t, SignedOut, f.manager.State())
	_, ok := f.manager.Identity()
	assert.False(t, ok)
	loggedIn, err := f.flags.LoggedIn()
	require.NoError(t, err)
	assert.False(t, loggedIn)
}

func TestDeleteAccount_RejectsConcurrentSignIn(t *testing.T) {
	f, parked := newParkedFixture(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.manager.DeleteAccount(ctx) }()
	<-parked.entered

	assert.Equal(t, Authenticating, f.manager.State())
	_, err := f.manager.SignIn(ctx, "a@x.com", "secret123")
	assert.ErrorIs(t, err, Models.ErrAuthInProgress)

	close(parked.release)
	require.NoError(t, <-done)
	assert.Equal(t, SignedOut, f.manager.State())
	loggedIn, err := f.flags.LoggedIn()
	require.NoError(t, err)
	assert.False(t, loggedIn)
}

func TestDeleteAccount_RemoteFailureKeepsSession(t *testing.T) {
	f, parked := newParkedFixture(t)
	parked.deleteErr = errors.New("network down")
	close(parked.release)

	err := f.manager.DeleteAccount(context.Background())
	assert.ErrorIs(t, err, Models.ErrAuth)
	assert.Equal(t, SignedIn, f.manager.State())
	_, ok := f.manager.Identity()
	assert.True(t, ok)
	assert.True(t, f.flags.loggedIn)
}
