// Package Directory is the boundary to the hosted identity provider and
// realtime document store. Paths follow the collection/document/... layout
// of the hosted store: odd segment counts name collections, even counts
// name documents.
package Directory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"Lulan/Models"
)

const (
	RosterPath        = "users"
	ProfilesPath      = "userProfiles"
	TasksPath         = "tasks"
	RobotsPath        = "robots"
	RobotCommandsPath = "robotCommands"

	GoogleProvider = "google.com"
)

// ErrEmailExists is returned by SignUp when the provider already has the email.
var ErrEmailExists = errors.New("EMAIL_EXISTS")

// Document is one stored value, JSON encoded.
type Document struct {
	ID   string
	Path string
	Data []byte
}

func (d Document) Decode(v interface{}) error {
	return json.Unmarshal(d.Data, v)
}

// Snapshot is the full state at a path. For a document path Docs has at
// most one entry and Exists reports whether it is present.
type Snapshot struct {
	Path   string
	Exists bool
	Docs   []Document
}

// Unsubscribe detaches a listener. When it returns, any in-flight callback
// has finished and no further callback will run. It must not be called from
// inside the listener's own callback.
type Unsubscribe func()

type Directory interface {
	SignIn(ctx context.Context, email, password string) (Models.Identity, error)
	SignUp(ctx context.Context, email, password, displayName string) (Models.Identity, error)
	SignInWithIDP(ctx context.Context, providerID, idToken string) (Models.Identity, error)
	SignOut(ctx context.Context, identity Models.Identity) error
	DeleteAccount(ctx context.Context, identity Models.Identity) error

	Get(ctx context.Context, path string) (Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Set(ctx context.Context, path string, value interface{}) error
	Delete(ctx context.Context, path string) error
	Subscribe(ctx context.Context, path string, onChange func(Snapshot)) (Unsubscribe, error)
}

func UserPath(uid string) string { return RosterPath + "/" + uid }
func ProfilePath(uid string) string { return ProfilesPath + "/" + uid }
func TaskPath(id string) string { return TasksPath + "/" + id }
func RobotPath(id string) string { return RobotsPath + "/" + id }
func RobotCommandPath(id string) string { return RobotCommandsPath + "/" + id }

func segments(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// IsCollection reports whether path names a collection.
func IsCollection(path string) bool {
	return len(segments(path))%2 == 1
}

// parent returns the collection a document path lives in.
func parent(path string) string {
	parts := segments(path)
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], "/")
}

func lastSegment(path string) string {
	parts := segments(path)
	return parts[len(parts)-1]
}
