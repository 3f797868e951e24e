package Directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lulan/Models"
)

func TestMemory_SignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()

	created, err := dir.SignUp(ctx, "a@x.com", "secret123", "Nurse One")
	require.NoError(t, err)
	assert.NotEmpty(t, created.UID)
	assert.NotEmpty(t, created.IDToken)

	_, err = dir.SignUp(ctx, "A@x.com", "secret123", "")
	assert.ErrorIs(t, err, ErrEmailExists)

	signedIn, err := dir.SignIn(ctx, "a@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.UID, signedIn.UID)

	_, err = dir.SignIn(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, Models.ErrInvalidCredentials)
	_, err = dir.SignIn(ctx, "b@x.com", "secret123")
	assert.ErrorIs(t, err, Models.ErrInvalidCredentials)

	require.NoError(t, dir.DeleteAccount(ctx, created))
	_, err = dir.SignIn(ctx, "a@x.com", "secret123")
	assert.ErrorIs(t, err, Models.ErrInvalidCredentials)
	assert.Error(t, dir.DeleteAccount(ctx, created))
}

func TestMemory_SignInWithIDP(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()
	dir.RegisterProvider(GoogleProvider, "google-token", "g@x.com", "Gina")

	first, err := dir.SignInWithIDP(ctx, GoogleProvider, "google-token")
	require.NoError(t, err)
	second, err := dir.SignInWithIDP(ctx, GoogleProvider, "google-token")
	require.NoError(t, err)
	assert.Equal(t, first.UID, second.UID)
	assert.Equal(t, "Gina", first.DisplayName)

	_, err = dir.SignInWithIDP(ctx, GoogleProvider, "forged")
	assert.ErrorIs(t, err, Models.ErrInvalidCredentials)
}

func TestMemory_Documents(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()

	_, err := dir.Get(ctx, UserPath("u1"))
	assert.ErrorIs(t, err, Models.ErrNotFound)

	require.NoError(t, dir.Set(ctx, UserPath("u2"), Models.UserRecord{ID: "u2", Name: "Bob"}))
	require.NoError(t, dir.Set(ctx, UserPath("u1"), Models.UserRecord{ID: "u1", Name: "Alice"}))
	require.NoError(t, dir.Set(ctx, ProfilePath("u1"), Models.UserProfile{Name: "Alice"}))

	doc, err := dir.Get(ctx, UserPath("u1"))
	require.NoError(t, err)
	var record Models.UserRecord
	require.NoError(t, doc.Decode(&record))
	assert.Equal(t, "Alice", record.Name)

	docs, err := dir.List(ctx, RosterPath)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "u1", docs[0].ID)
	assert.Equal(t, "u2", docs[1].ID)

	require.NoError(t, dir.Delete(ctx, UserPath("u2")))
	docs, err = dir.List(ctx, RosterPath)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	assert.Error(t, dir.Set(ctx, RosterPath, Models.UserRecord{}))
}

func TestMemory_FailWrites(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()
	boom := errors.New("unavailable")
	dir.FailWrites(ProfilesPath, boom)

	assert.ErrorIs(t, dir.Set(ctx, ProfilePath("u1"), Models.UserProfile{}), boom)
	assert.NoError(t, dir.Set(ctx, UserPath("u1"), Models.UserRecord{}))

	dir.ClearFailures()
	assert.NoError(t, dir.Set(ctx, ProfilePath("u1"), Models.UserProfile{}))
}

func TestMemory_SubscribeDeliversCurrentThenChanges(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()
	require.NoError(t, dir.Set(ctx, UserPath("u1"), Models.UserRecord{ID: "u1"}))

	var mu sync.Mutex
	var sizes []int
	unsubscribe, err := dir.Subscribe(ctx, RosterPath, func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		sizes = append(sizes, len(s.Docs))
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dir.Subscribers(RosterPath))

	require.NoError(t, dir.Set(ctx, UserPath("u2"), Models.UserRecord{ID: "u2"}))
	require.NoError(t, dir.Set(ctx, ProfilePath("u2"), Models.UserProfile{}))
	unsubscribe()
	unsubscribe()
	require.NoError(t, dir.Set(ctx, UserPath("u3"), Models.UserRecord{ID: "u3"}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, sizes)
	assert.Equal(t, 0, dir.Subscribers(RosterPath))
}

func TestMemory_SubscribeDocument(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()

	var snapshots []Snapshot
	unsubscribe, err := dir.Subscribe(ctx, ProfilePath("u1"), func(s Snapshot) {
		snapshots = append(snapshots, s)
	})
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, dir.Set(ctx, ProfilePath("u1"), Models.UserProfile{Name: "Alice"}))
	require.NoError(t, dir.Delete(ctx, ProfilePath("u1")))

	require.Len(t, snapshots, 3)
	assert.False(t, snapshots[0].Exists)
	assert.True(t, snapshots[1].Exists)
	var profile Models.UserProfile
	require.NoError(t, snapshots[1].Docs[0].Decode(&profile))
	assert.Equal(t, "Alice", profile.Name)
	assert.False(t, snapshots[2].Exists)
}

func TestMemory_UnsubscribeWaitsForInflightCallback(t *testing.T) {
	ctx := context.Background()
	dir := NewMemory()

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	unsubscribe, err := dir.Subscribe(ctx, ProfilePath("u1"), func(s Snapshot) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 2 {
			close(entered)
			<-release
		}
	})
	require.NoError(t, err)

	go func() {
		_ = dir.Set(ctx, ProfilePath("u1"), Models.UserProfile{Name: "Alice"})
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		unsubscribe()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("unsubscribe returned while a callback was running")
	default:
	}
	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestMemory_ContextCancelDetaches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dir := NewMemory()
	_, err := dir.Subscribe(ctx, TasksPath, func(Snapshot) {})
	require.NoError(t, err)
	require.Equal(t, 1, dir.Subscribers(TasksPath))

	cancel()
	assert.Eventually(t, func() bool { return dir.Subscribers(TasksPath) == 0 }, time.Second, 5*time.Millisecond)
}

func TestIsCollection(t *testing.T) {
	assert.True(t, IsCollection(RosterPath))
	assert.False(t, IsCollection(UserPath("u1")))
	assert.True(t, IsCollection("robots/r1/history"))
}
