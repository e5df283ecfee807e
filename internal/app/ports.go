package app

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection names inside one namespace.
const (
	CollectionAssetTypes      = "assetTypes"
	CollectionContracts       = "contracts"
	CollectionActivityRecords = "activityRecords"
	CollectionSettings        = "settings"
)

// Settings document ids.
const (
	DocMaintenanceCategories = "maintenanceCategories"
	DocDefinedActivityNames  = "definedActivityNames"
)

// Collections lists every collection the application owns.
func Collections() []string {
	return []string{CollectionAssetTypes, CollectionContracts, CollectionActivityRecords, CollectionSettings}
}

// Fields is a partial or full document payload keyed by top-level field name.
type Fields map[string]any

// Document is one stored document.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into out.
func (d Document) Decode(out any) error {
	if len(d.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(d.Data, out); err != nil {
		return fmt.Errorf("decode document %q: %w", d.ID, err)
	}
	return nil
}

// CollectionSnapshot is the full content of one collection at a point in time.
// A snapshot with Err set is the last one on its stream.
type CollectionSnapshot struct {
	Collection string
	Documents  []Document
	Err        error
}

// Filter is one equality predicate on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// DocumentStore is the namespaced document database the application persists into.
type DocumentStore interface {
	// Subscribe streams a snapshot of collection now and after every committed change
	// until ctx is done. The channel is closed when the stream ends.
	Subscribe(ctx context.Context, collection string) (<-chan CollectionSnapshot, error)
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	Set(ctx context.Context, collection, id string, fields Fields, merge bool) error
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Batch() Batch
}

// Batch groups writes that commit all-or-nothing.
type Batch interface {
	Add(collection string, fields Fields) string
	Set(collection, id string, fields Fields, merge bool)
	Update(collection, id string, fields Fields)
	Delete(collection, id string)
	Commit(ctx context.Context) error
}

// ActorProvider yields the opaque id of the current actor.
type ActorProvider interface {
	ActorID(ctx context.Context) (string, error)
}

// TextCompleter turns a prompt into generated text.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Logger is the structured logger used by long-running components.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// nopLogger discards every event.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
