package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hylla/sudsboard/internal/app"
	"github.com/hylla/sudsboard/internal/domain"
)

// Store is the document store of one namespace.
type Store struct {
	repo      *Repository
	namespace string
}

var _ app.DocumentStore = (*Store)(nil)

// Namespace returns the tenant key.
func (s *Store) Namespace() string {
	return s.namespace
}

// Subscribe streams the collection now and after every commit that touches it.
// A failed read ends the stream with a snapshot carrying the error.
func (s *Store) Subscribe(ctx context.Context, collection string) (<-chan app.CollectionSnapshot, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	subID, notify := s.repo.hub.subscribe(s.namespace, collection)
	out := make(chan app.CollectionSnapshot)
	go func() {
		defer close(out)
		defer s.repo.hub.unsubscribe(subID)
		for {
			docs, err := s.Query(ctx, collection)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				select {
				case out <- app.CollectionSnapshot{Collection: collection, Err: err}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- app.CollectionSnapshot{Collection: collection, Documents: docs}:
			case <-ctx.Done():
				return
			}
			select {
			case <-notify:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Add stores a new document under a generated id.
func (s *Store) Add(ctx context.Context, collection string, fields app.Fields) (string, error) {
	b := s.Batch()
	id := b.Add(collection, fields)
	if err := b.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// Set writes a document, replacing it unless merge is set.
func (s *Store) Set(ctx context.Context, collection, id string, fields app.Fields, merge bool) error {
	b := s.Batch()
	b.Set(collection, id, fields, merge)
	return b.Commit(ctx)
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, fields app.Fields) error {
	b := s.Batch()
	b.Update(collection, id, fields)
	return b.Commit(ctx)
}

// Delete removes a document. Deleting a missing document is a no-op.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	b := s.Batch()
	b.Delete(collection, id)
	return b.Commit(ctx)
}

// Get returns one document.
func (s *Store) Get(ctx context.Context, collection, id string) (app.Document, error) {
	if err := validateCollection(collection); err != nil {
		return app.Document{}, err
	}
	row := s.repo.db.QueryRowContext(ctx, `
		SELECT id, fields_json FROM documents
		WHERE namespace = ? AND collection = ? AND id = ?`,
		s.namespace, collection, id,
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return app.Document{}, notFound(collection, id)
	}
	if err != nil {
		return app.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Query returns the documents of collection matching every filter, in insertion order.
func (s *Store) Query(ctx context.Context, collection string, filters ...app.Filter) ([]app.Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(`SELECT id, fields_json FROM documents WHERE namespace = ? AND collection = ?`)
	args := []any{s.namespace, collection}
	for _, filter := range filters {
		path, err := fieldPath(filter.Field)
		if err != nil {
			return nil, err
		}
		value, err := filterValue(filter)
		if err != nil {
			return nil, err
		}
		sb.WriteString(` AND json_extract(fields_json, ?) = ?`)
		args = append(args, path, value)
	}
	sb.WriteString(` ORDER BY seq ASC`)

	rows, err := s.repo.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()
	out := make([]app.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Batch starts an atomic group of writes.
func (s *Store) Batch() app.Batch {
	return &batch{store: s}
}

// batchOp is one pending write.
type batchOp struct {
	kind       string
	collection string
	id         string
	fields     app.Fields
	merge      bool
}

// batch collects writes and commits them in one transaction.
type batch struct {
	store *Store
	ops   []batchOp
}

// Add queues a create under a new id and returns that id.
func (b *batch) Add(collection string, fields app.Fields) string {
	id := uuid.NewString()
	b.ops = append(b.ops, batchOp{kind: "add", collection: collection, id: id, fields: fields})
	return id
}

// Set queues a full or merged write.
func (b *batch) Set(collection, id string, fields app.Fields, merge bool) {
	b.ops = append(b.ops, batchOp{kind: "set", collection: collection, id: id, fields: fields, merge: merge})
}

// Update queues a merge into an existing document.
func (b *batch) Update(collection, id string, fields app.Fields) {
	b.ops = append(b.ops, batchOp{kind: "update", collection: collection, id: id, fields: fields})
}

// Delete queues a delete.
func (b *batch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: "delete", collection: collection, id: id})
}

// Commit applies every queued write or none of them.
func (b *batch) Commit(ctx context.Context) (err error) {
	if len(b.ops) == 0 {
		return nil
	}
	for _, op := range b.ops {
		if err := validateCollection(op.collection); err != nil {
			return err
		}
		if strings.TrimSpace(op.id) == "" {
			return domain.ValidationInputError{Field: "document_id"}
		}
	}
	db := b.store.repo.db
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := ts(time.Now())
	touched := map[string]struct{}{}
	for _, op := range b.ops {
		touched[op.collection] = struct{}{}
		if err = b.apply(ctx, tx, op, now); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	collections := make([]string, 0, len(touched))
	for collection := range touched {
		collections = append(collections, collection)
	}
	b.store.repo.hub.publish(b.store.namespace, collections)
	return nil
}

// apply executes one op inside tx.
func (b *batch) apply(ctx context.Context, tx *sql.Tx, op batchOp, now string) error {
	ns := b.store.namespace
	switch op.kind {
	case "add":
		body, err := encodeFields(nil, op.fields)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents(namespace, collection, id, fields_json, created_at, updated_at)
			VALUES(?, ?, ?, ?, ?, ?)`,
			ns, op.collection, op.id, body, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return nil
	case "set", "update":
		current, exists, err := loadFields(ctx, tx, ns, op.collection, op.id)
		if err != nil {
			return err
		}
		if op.kind == "update" && !exists {
			return notFound(op.collection, op.id)
		}
		base := current
		if op.kind == "set" && !op.merge {
			base = nil
		}
		body, err := encodeFields(base, op.fields)
		if err != nil {
			return err
		}
		return writeFields(ctx, tx, ns, op.collection, op.id, body, now, exists)
	case "delete":
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM documents WHERE namespace = ? AND collection = ? AND id = ?`,
			ns, op.collection, op.id,
		); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown batch op %q", op.kind)
	}
}

// loadFields reads the current top-level fields of one document.
func loadFields(ctx context.Context, q queryRower, ns, collection, id string) (map[string]json.RawMessage, bool, error) {
	var raw string
	err := q.QueryRowContext(ctx, `
		SELECT fields_json FROM documents WHERE namespace = ? AND collection = ? AND id = ?`,
		ns, collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load document: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, false, fmt.Errorf("decode document %s/%s: %w", collection, id, err)
	}
	return fields, true, nil
}

// writeFields inserts or rewrites one document body.
func writeFields(ctx context.Context, execer execerContext, ns, collection, id, body, now string, exists bool) error {
	if !exists {
		_, err := execer.ExecContext(ctx, `
			INSERT INTO documents(namespace, collection, id, fields_json, created_at, updated_at)
			VALUES(?, ?, ?, ?, ?, ?)`,
			ns, collection, id, body, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		return nil
	}
	res, err := execer.ExecContext(ctx, `
		UPDATE documents SET fields_json = ?, updated_at = ?
		WHERE namespace = ? AND collection = ? AND id = ?`,
		body, now, ns, collection, id,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return translateNoRows(res, collection, id)
}

// encodeFields merges fields over base and encodes the result.
func encodeFields(base map[string]json.RawMessage, fields app.Fields) (string, error) {
	out := make(map[string]json.RawMessage, len(base)+len(fields))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range fields {
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode field %q: %w", k, err)
		}
		out[k] = encoded
	}
	body, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(body), nil
}

// scanDocument scans one id and body pair.
func scanDocument(s scanner) (app.Document, error) {
	var (
		id  string
		raw string
	)
	if err := s.Scan(&id, &raw); err != nil {
		return app.Document{}, err
	}
	return app.Document{ID: id, Data: json.RawMessage(raw)}, nil
}

// validateCollection rejects blank collection names.
func validateCollection(collection string) error {
	if strings.TrimSpace(collection) == "" {
		return domain.ValidationInputError{Field: "collection"}
	}
	return nil
}

// fieldPath builds a json_extract path for one top-level field.
func fieldPath(field string) (string, error) {
	field = strings.TrimSpace(field)
	if field == "" || strings.ContainsAny(field, `"\`) {
		return "", domain.ValidationInputError{Field: "filter", Reason: fmt.Sprintf("unsupported field %q", field)}
	}
	return `$."` + field + `"`, nil
}

// filterValue converts a filter value to what json_extract returns for it.
func filterValue(filter app.Filter) (any, error) {
	switch v := filter.Value.(type) {
	case string, int, int64, float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return nil, domain.ValidationInputError{
			Field:  "filter",
			Reason: fmt.Sprintf("field %q: unsupported value type %T", filter.Field, filter.Value),
		}
	}
}
