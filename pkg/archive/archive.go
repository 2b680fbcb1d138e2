// Package archive persists topology snapshots for later replay.
//
// Each refresh cycle can be archived as a [Record]: the full snapshot plus
// enough metadata to list and prune without deserializing payloads. The
// serve deployment stores records in MongoDB; the CLI and tests use the
// in-memory store.
package archive

import (
	"context"
	"time"

	"github.com/meshview/meshview/pkg/mesh"
)

// Record is one archived refresh cycle.
type Record struct {
	// ID is a UUID assigned when the record is saved.
	ID string `bson:"_id" json:"id"`

	// Source is the provider base URL the snapshot was fetched from.
	Source string `bson:"source" json:"source"`

	// Taken is when the snapshot was built.
	Taken time.Time `bson:"taken" json:"taken"`

	// NodeCount and LinkCount allow listing without loading the payload.
	NodeCount int `bson:"node_count" json:"node_count"`
	LinkCount int `bson:"link_count" json:"link_count"`

	Snapshot mesh.Snapshot `bson:"snapshot" json:"snapshot"`
}

// Store persists and retrieves archived snapshots.
type Store interface {
	// Save persists the record and returns its assigned ID.
	Save(ctx context.Context, rec Record) (string, error)

	// Get loads one record by ID.
	Get(ctx context.Context, id string) (Record, error)

	// List returns record metadata, newest first, without payloads.
	List(ctx context.Context, limit int) ([]Record, error)

	// Prune removes the oldest records beyond keep. Returns how many were
	// removed.
	Prune(ctx context.Context, keep int) (int, error)

	Close(ctx context.Context) error
}
