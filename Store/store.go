// Package Store is the single in-process cache of the delivery queue,
// capability flags, saved biometric templates, the roster and the signed in
// user's profile. Inbound state arrives from directory listeners as full
// snapshots; outbound mutations are written through to the directory.
package Store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"Lulan/Directory"
	"Lulan/Gate"
	"Lulan/Models"
)

type Option func(*Store)

// WithClock replaces time.Now for id and timestamp generation.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

type Store struct {
	dir Directory.Directory
	now func() time.Time

	mu           sync.RWMutex
	ctx          context.Context
	tasks        []Models.Task
	lastSequence int64
	flags        Models.CapabilityFlags
	templates    []Models.BiometricTemplate
	roster       []Models.UserRecord
	profile      Models.UserProfile
	identity     *Models.Identity
	// generation is bumped on every identity change; profile callbacks
	// carrying an older generation are dropped.
	generation uint64

	rosterUnsub  Directory.Unsubscribe
	tasksUnsub   Directory.Unsubscribe
	profileUnsub Directory.Unsubscribe
}

func New(dir Directory.Directory, opts ...Option) *Store {
	s := &Store{
		dir:   dir,
		now:   time.Now,
		ctx:   context.Background(),
		flags: Models.DefaultFlags(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start attaches the long-lived roster and task listeners. ctx bounds every
// listener the store opens, including later profile listeners.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	rosterUnsub, err := s.dir.Subscribe(ctx, Directory.RosterPath, s.onRoster)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Directory.RosterPath, err)
	}
	tasksUnsub, err := s.dir.Subscribe(ctx, Directory.TasksPath, s.onTasks)
	if err != nil {
		rosterUnsub()
		return fmt.Errorf("subscribe %s: %w", Directory.TasksPath, err)
	}

	s.mu.Lock()
	s.rosterUnsub = rosterUnsub
	s.tasksUnsub = tasksUnsub
	s.mu.Unlock()
	return nil
}

// Close detaches every listener. Listener teardown happens outside the lock
// so that in-flight callbacks can finish.
func (s *Store) Close() {
	s.mu.Lock()
	unsubs := []Directory.Unsubscribe{s.rosterUnsub, s.tasksUnsub, s.profileUnsub}
	s.rosterUnsub, s.tasksUnsub, s.profileUnsub = nil, nil, nil
	s.generation++
	s.mu.Unlock()

	for _, unsub := range unsubs {
		if unsub != nil {
			unsub()
		}
	}
}

// AttachIdentity points the profile listener at the identity's document.
// Any previous identity is detached first.
func (s *Store) AttachIdentity(ctx context.Context, identity Models.Identity) error {
	s.DetachIdentity()

	s.mu.Lock()
	s.generation++
	gen := s.generation
	attached := identity
	s.identity = &attached
	base := s.ctx
	s.mu.Unlock()

	path := Directory.ProfilePath(identity.UID)
	unsub, err := s.dir.Subscribe(base, path, func(snapshot Directory.Snapshot) {
		s.onProfile(gen, snapshot)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", path, err)
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		unsub()
		return nil
	}
	s.profileUnsub = unsub
	s.mu.Unlock()
	return nil
}

// DetachIdentity tears the profile listener down before returning and
// resets everything scoped to the signed in user: the profile, saved
// templates and face/voice capability.
func (s *Store) DetachIdentity() {
	s.mu.Lock()
	s.generation++
	unsub := s.profileUnsub
	s.profileUnsub = nil
	s.identity = nil
	s.profile = Models.UserProfile{}
	s.templates = nil
	s.flags.IsFaceAuthenticated = false
	s.flags.IsVoiceEnabled = false
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (s *Store) Identity() (Models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Models.Identity{}, false
	}
	return *s.identity, true
}

func (s *Store) CanUseVoice() bool {
	return Gate.CanUseVoice(s.Flags())
}

func (s *Store) onRoster(snapshot Directory.Snapshot) {
	records := make([]Models.UserRecord, 0, len(snapshot.Docs))
	for _, doc := range snapshot.Docs {
		var record Models.UserRecord
		if err := doc.Decode(&record); err != nil {
			log.Printf("Skipping roster entry %s: %v", doc.ID, err)
			continue
		}
		if record.ID == "" {
			record.ID = doc.ID
		}
		records = append(records, record)
	}

	s.mu.Lock()
	s.roster = records
	s.mu.Unlock()
}

func (s *Store) onTasks(snapshot Directory.Snapshot) {
	tasks := make([]Models.Task, 0, len(snapshot.Docs))
	var highest int64
	for _, doc := range snapshot.Docs {
		var task Models.Task
		if err := doc.Decode(&task); err != nil {
			log.Printf("Skipping task %s: %v", doc.ID, err)
			continue
		}
		if task.ID == "" {
			task.ID = doc.ID
		}
		if task.Sequence > highest {
			highest = task.Sequence
		}
		tasks = append(tasks, task)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Sequence < tasks[j].Sequence })

	s.mu.Lock()
	s.tasks = tasks
	if highest > s.lastSequence {
		s.lastSequence = highest
	}
	s.mu.Unlock()
}

func (s *Store) onProfile(gen uint64, snapshot Directory.Snapshot) {
	var profile Models.UserProfile
	if snapshot.Exists && len(snapshot.Docs) > 0 {
		if err := snapshot.Docs[0].Decode(&profile); err != nil {
			log.Printf("Ignoring profile snapshot %s: %v", snapshot.Path, err)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.profile = profile
}
