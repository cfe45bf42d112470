// Package store persists named layouts. Two shapes are covered: version
// snapshots (an append-only history with notes, listed newest first) and
// templates (named layouts overwritten in place). Backends exist for
// memory (tests), the filesystem (msgpack records), and MongoDB.
//
// Restoring a snapshot replaces the working diagram; that step is owned by
// the caller, which must collect an explicit confirmation before loading.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tracewire/tracewire/pkg/diagram"
)

var (
	// ErrSnapshotNotFound is returned when a snapshot id does not resolve.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrTemplateNotFound is returned when a template name does not
	// resolve.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrEmptyName is returned for blank template names.
	ErrEmptyName = errors.New("template name must not be empty")
)

// Snapshot is one saved version of a layout.
type Snapshot struct {
	ID        string         `json:"id" bson:"_id" msgpack:"id"`
	Note      string         `json:"note,omitempty" bson:"note,omitempty" msgpack:"note"`
	Layout    diagram.Layout `json:"layout" bson:"layout" msgpack:"layout"`
	CreatedAt time.Time      `json:"createdAt" bson:"created_at" msgpack:"created_at"`
}

// Template is a named layout used as a starting point for new diagrams.
type Template struct {
	Name      string         `json:"name" bson:"_id" msgpack:"name"`
	Layout    diagram.Layout `json:"layout" bson:"layout" msgpack:"layout"`
	CreatedAt time.Time      `json:"createdAt" bson:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updated_at" msgpack:"updated_at"`
}

// VersionStore is the append-only snapshot history.
type VersionStore interface {
	// SaveSnapshot appends a new version with an optional note.
	SaveSnapshot(ctx context.Context, l diagram.Layout, note string) (*Snapshot, error)

	// ListSnapshots returns all versions, newest first.
	ListSnapshots(ctx context.Context) ([]*Snapshot, error)

	// GetSnapshot returns one version by id.
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)

	// DeleteSnapshot removes one version by id.
	DeleteSnapshot(ctx context.Context, id string) error
}

// TemplateStore is the named-template catalog.
type TemplateStore interface {
	// SaveTemplate creates or overwrites the template under name.
	SaveTemplate(ctx context.Context, name string, l diagram.Layout) (*Template, error)

	// GetTemplate returns the template stored under name.
	GetTemplate(ctx context.Context, name string) (*Template, error)

	// ListTemplates returns all templates sorted by name.
	ListTemplates(ctx context.Context) ([]*Template, error)

	// DeleteTemplate removes the template stored under name.
	DeleteTemplate(ctx context.Context, name string) error
}
