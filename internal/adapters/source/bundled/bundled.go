// Package bundled serves the activity data compiled into the binary.
package bundled

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hylla/slaboard/internal/domain"
)

// Origin names this source in snapshots and logs.
const Origin = "bundled"

// ErrMissingCollection reports a document without its top-level collection key.
var ErrMissingCollection = errors.New("document has no collection")

//go:embed data/activity-definitions.json
var definitionsJSON []byte

//go:embed data/activity-statuses.json
var statusesJSON []byte

// DefinitionsDocument is the wire shape of activity-definitions.json.
type DefinitionsDocument struct {
	Activities []domain.ActivityDefinition `json:"activities"`
}

// StatusesDocument is the wire shape of activity-statuses.json.
type StatusesDocument struct {
	Statuses []domain.ActivityStatus `json:"statuses"`
}

// DecodeDefinitions reads a definitions document. A missing or null
// "activities" key is ErrMissingCollection; an empty array is valid.
func DecodeDefinitions(r io.Reader) ([]domain.ActivityDefinition, error) {
	var doc DefinitionsDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode definitions: %w", err)
	}
	if doc.Activities == nil {
		return nil, fmt.Errorf("decode definitions: activities: %w", ErrMissingCollection)
	}
	return doc.Activities, nil
}

// DecodeStatuses reads a statuses document with the same rules as DecodeDefinitions.
func DecodeStatuses(r io.Reader) ([]domain.ActivityStatus, error) {
	var doc StatusesDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode statuses: %w", err)
	}
	if doc.Statuses == nil {
		return nil, fmt.Errorf("decode statuses: statuses: %w", ErrMissingCollection)
	}
	return doc.Statuses, nil
}

var loadDefinitions = sync.OnceValues(func() ([]domain.ActivityDefinition, error) {
	return DecodeDefinitions(bytes.NewReader(definitionsJSON))
})

var loadStatuses = sync.OnceValues(func() ([]domain.ActivityStatus, error) {
	return DecodeStatuses(bytes.NewReader(statusesJSON))
})

// Definitions returns a fresh copy of the bundled definitions.
func Definitions() []domain.ActivityDefinition {
	defs, err := loadDefinitions()
	if err != nil {
		panic(fmt.Sprintf("bundled definitions are corrupt: %v", err))
	}
	return append([]domain.ActivityDefinition(nil), defs...)
}

// Statuses returns a fresh copy of the bundled status records.
func Statuses() []domain.ActivityStatus {
	statuses, err := loadStatuses()
	if err != nil {
		panic(fmt.Sprintf("bundled statuses are corrupt: %v", err))
	}
	return append([]domain.ActivityStatus(nil), statuses...)
}

// Source implements the app source port over the bundled data.
type Source struct{}

// New constructs a bundled source.
func New() *Source {
	return &Source{}
}

// FetchDefinitions returns the bundled definitions.
func (s *Source) FetchDefinitions(ctx context.Context) ([]domain.ActivityDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Definitions(), nil
}

// FetchStatuses returns the bundled status records.
func (s *Source) FetchStatuses(ctx context.Context) ([]domain.ActivityStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Statuses(), nil
}

// Origin reports the bundled origin.
func (s *Source) Origin() string {
	return Origin
}
