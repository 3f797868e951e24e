package Robot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"Lulan/Directory"
	"Lulan/Gate"
	"Lulan/Models"
)

// DefaultMaxSilence is how long a robot may go without reporting before it
// is shown offline.
const DefaultMaxSilence = 30 * time.Second

type Monitor struct {
	dir        Directory.Directory
	id         string
	now        func() time.Time
	MaxSilence time.Duration

	mu       sync.RWMutex
	status   Status
	lastSeen time.Time
	unsub    Directory.Unsubscribe
}

func NewMonitor(dir Directory.Directory, id string) *Monitor {
	return &Monitor{
		dir:        dir,
		id:         id,
		now:        time.Now,
		MaxSilence: DefaultMaxSilence,
		status:     Placeholder(id),
	}
}

func (m *Monitor) ID() string {
	return m.id
}

// Start listens on robots/{id}. Every report replaces the whole status.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	m.lastSeen = m.now()
	m.mu.Unlock()

	path := Directory.RobotPath(m.id)
	unsub, err := m.dir.Subscribe(ctx, path, m.onStatus)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", path, err)
	}
	m.mu.Lock()
	m.unsub = unsub
	m.mu.Unlock()
	return nil
}

func (m *Monitor) Close() {
	m.mu.Lock()
	unsub := m.unsub
	m.unsub = nil
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) onStatus(snapshot Directory.Snapshot) {
	if !snapshot.Exists || len(snapshot.Docs) == 0 {
		return
	}
	var status Status
	if err := snapshot.Docs[0].Decode(&status); err != nil {
		log.Printf("Ignoring robot report %s: %v", snapshot.Path, err)
		return
	}
	if status.ID == "" {
		status.ID = m.id
	}
	status.Online = true

	m.mu.Lock()
	m.status = status
	m.lastSeen = m.now()
	m.mu.Unlock()
}

// CheckHeartbeat marks the robot offline once it has been silent longer than
// MaxSilence and reports whether that happened on this call.
func (m *Monitor) CheckHeartbeat(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.status.Online || now.Sub(m.lastSeen) <= m.MaxSilence {
		return false
	}
	m.status.Online = false
	log.Printf("Robot %s silent since %s, marking offline", m.id, m.lastSeen.Format(time.RFC3339))
	return true
}

// SendCommand writes the command for the robot to pick up. Voice commands
// go through the capability gate.
func (m *Monitor) SendCommand(ctx context.Context, cmd Command, flags Models.CapabilityFlags) (Command, error) {
	action := Gate.ManualRobotCommand
	if cmd.Source == Voice {
		action = Gate.VoiceCommand
	}
	if !Gate.Allowed(action, flags) {
		return Command{}, Models.ErrVoiceRequiresFace
	}
	kind, err := ParseKind(string(cmd.Kind))
	if err != nil {
		return Command{}, Models.Invalid("kind", err.Error())
	}
	cmd.Kind = kind
	if cmd.Source == "" {
		cmd.Source = Manual
	}
	cmd.IssuedAt = m.now()

	path := Directory.RobotCommandPath(m.id)
	if err := m.dir.Set(ctx, path, cmd); err != nil {
		return Command{}, Models.RemoteWriteFailure(path, err)
	}
	log.Printf("Robot %s: %s (%s)", m.id, cmd.Kind, cmd.Source)
	return cmd, nil
}
