package firesync

import (
	"time"

	"github.com/Mihary-Mandresy/cloud-s5-back/firestore"
)

type EntityType string

const (
	TypeUtilisateurs EntityType = "utilisateurs"
	TypeSignalements EntityType = "signalements"
	TypeEntreprises  EntityType = "entreprises"
	TypeRoles        EntityType = "roles"
)

// SyncOrder is fixed: users first so that reports pushed later can resolve
// their owner linkage.
var SyncOrder = []EntityType{TypeUtilisateurs, TypeSignalements, TypeEntreprises, TypeRoles}

// Collection is the remote collection name for a type. Types are already
// named after their collections.
func (t EntityType) Collection() string { return string(t) }

// LocalSnapshot is one local record already normalized to its remote shape,
// ready to push. ID is the string-coerced local id.
type LocalSnapshot struct {
	ID     string
	Fields map[string]firestore.Value
}

type ComparisonResult struct {
	Type        EntityType           `json:"type"`
	LocalCount  int                  `json:"local_count"`
	RemoteCount int                  `json:"remote_count"`
	LocalOnly   []LocalSnapshot      `json:"-"`
	RemoteOnly  []firestore.Document `json:"-"`
}

func (r *ComparisonResult) LocalOnlyCount() int  { return len(r.LocalOnly) }
func (r *ComparisonResult) RemoteOnlyCount() int { return len(r.RemoteOnly) }

// Synchronized is true when nothing is missing in either direction.
func (r *ComparisonResult) Synchronized() bool {
	return len(r.LocalOnly) == 0 && len(r.RemoteOnly) == 0
}

// TypeSummary is the JSON-friendly view of a ComparisonResult.
type TypeSummary struct {
	Type          EntityType `json:"type"`
	LocalCount    int        `json:"local_count"`
	RemoteCount   int        `json:"remote_count"`
	LocalOnly     int        `json:"local_only"`
	RemoteOnly    int        `json:"remote_only"`
	LocalOnlyIds  []string   `json:"local_only_ids,omitempty"`
	RemoteOnlyIds []string   `json:"remote_only_ids,omitempty"`
	Synchronized  bool       `json:"synchronized"`
}

type SyncOutcome struct {
	SyncedCount    int      `json:"synced_count"`
	FailedCount    int      `json:"failed_count"`
	TotalAttempted int      `json:"total_attempted"`
	Errors         []string `json:"errors,omitempty"`
}

func (o *SyncOutcome) recordSuccess() {
	o.SyncedCount++
	o.TotalAttempted++
}

func (o *SyncOutcome) recordFailure(err error) {
	o.FailedCount++
	o.TotalAttempted++
	o.Errors = append(o.Errors, err.Error())
}

type SyncState string

const (
	StateIdle       SyncState = "idle"
	StatePushing    SyncState = "pushing"
	StatePulling    SyncState = "pulling"
	StateVerifying  SyncState = "verifying"
	StateCommitted  SyncState = "committed"
	StateRolledBack SyncState = "rolled_back"
)

// SyncReport is the structured outcome of a full sync. When the local
// transaction rolls back, remote writes made during the push phase are kept:
// Firestore offers no compensating transaction, so RemoteWritesKept tells the
// caller the remote store may be ahead of the local one.
type SyncReport struct {
	State            SyncState                   `json:"state"`
	Synchronized     bool                        `json:"synchronise"`
	StartedAt        time.Time                   `json:"started_at"`
	FinishedAt       time.Time                   `json:"finished_at"`
	Push             map[EntityType]*SyncOutcome `json:"push,omitempty"`
	Pull             map[EntityType]*SyncOutcome `json:"pull,omitempty"`
	Verification     []*TypeSummary              `json:"verification,omitempty"`
	RemoteWritesKept bool                        `json:"remote_writes_kept"`
	Error            string                      `json:"error,omitempty"`
}
