package app

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/hylla/sudsboard/internal/domain"
)

// fakeStore is an in-memory DocumentStore with atomic batches and change fan-out.
type fakeStore struct {
	mu         sync.Mutex
	seq        int
	order      map[string][]string
	docs       map[string]map[string]map[string]any
	subs       []fakeSub
	failCommit error
	commits    int
}

// fakeSub is one live subscription.
type fakeSub struct {
	collection string
	notify     chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		order: map[string][]string{},
		docs:  map[string]map[string]map[string]any{},
	}
}

func (f *fakeStore) Subscribe(ctx context.Context, collection string) (<-chan CollectionSnapshot, error) {
	notify := make(chan struct{}, 1)
	f.mu.Lock()
	f.subs = append(f.subs, fakeSub{collection: collection, notify: notify})
	f.mu.Unlock()

	out := make(chan CollectionSnapshot)
	go func() {
		defer close(out)
		for {
			select {
			case out <- f.snapshot(collection):
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

func (f *fakeStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	b := f.Batch()
	id := b.Add(collection, fields)
	return id, b.Commit(ctx)
}

func (f *fakeStore) Set(ctx context.Context, collection, id string, fields Fields, merge bool) error {
	b := f.Batch()
	b.Set(collection, id, fields, merge)
	return b.Commit(ctx)
}

func (f *fakeStore) Update(ctx context.Context, collection, id string, fields Fields) error {
	b := f.Batch()
	b.Update(collection, id, fields)
	return b.Commit(ctx)
}

func (f *fakeStore) Delete(ctx context.Context, collection, id string) error {
	b := f.Batch()
	b.Delete(collection, id)
	return b.Commit(ctx)
}

func (f *fakeStore) Get(_ context.Context, collection, id string) (Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[collection][id]
	if !ok {
		return Document{}, domain.NotFoundError{Kind: domain.KindDocument, Key: collection + "/" + id}
	}
	return encodeFakeDoc(id, doc), nil
}

func (f *fakeStore) Query(_ context.Context, collection string, filters ...Filter) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Document
	for _, id := range f.order[collection] {
		doc := f.docs[collection][id]
		if matchesFilters(doc, filters) {
			out = append(out, encodeFakeDoc(id, doc))
		}
	}
	return out, nil
}

func (f *fakeStore) Batch() Batch {
	return &fakeBatch{store: f}
}

// put writes raw fields directly, bypassing batches.
func (f *fakeStore) put(collection, id string, fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[collection] == nil {
		f.docs[collection] = map[string]map[string]any{}
	}
	if _, ok := f.docs[collection][id]; !ok {
		f.order[collection] = append(f.order[collection], id)
	}
	f.docs[collection][id] = jsonFields(fields)
}

// raw returns a stored document body.
func (f *fakeStore) raw(collection, id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[collection][id]
	return doc, ok
}

// count returns the number of documents in collection.
func (f *fakeStore) count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs[collection])
}

func (f *fakeStore) snapshot(collection string) CollectionSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := CollectionSnapshot{Collection: collection}
	for _, id := range f.order[collection] {
		snap.Documents = append(snap.Documents, encodeFakeDoc(id, f.docs[collection][id]))
	}
	return snap
}

// fakeOp is one pending batch write.
type fakeOp struct {
	kind       string
	collection string
	id         string
	fields     Fields
	merge      bool
}

type fakeBatch struct {
	store *fakeStore
	ops   []fakeOp
}

func (b *fakeBatch) Add(collection string, fields Fields) string {
	b.store.mu.Lock()
	b.store.seq++
	id := fmt.Sprintf("doc-%d", b.store.seq)
	b.store.mu.Unlock()
	b.ops = append(b.ops, fakeOp{kind: "set", collection: collection, id: id, fields: fields})
	return id
}

func (b *fakeBatch) Set(collection, id string, fields Fields, merge bool) {
	b.ops = append(b.ops, fakeOp{kind: "set", collection: collection, id: id, fields: fields, merge: merge})
}

func (b *fakeBatch) Update(collection, id string, fields Fields) {
	b.ops = append(b.ops, fakeOp{kind: "update", collection: collection, id: id, fields: fields})
}

func (b *fakeBatch) Delete(collection, id string) {
	b.ops = append(b.ops, fakeOp{kind: "delete", collection: collection, id: id})
}

// Commit applies every op to a copy and swaps it in only when all succeed.
func (b *fakeBatch) Commit(_ context.Context) error {
	f := b.store
	f.mu.Lock()
	if f.failCommit != nil {
		f.mu.Unlock()
		return f.failCommit
	}
	docs := cloneFakeDocs(f.docs)
	order := map[string][]string{}
	for k, v := range f.order {
		order[k] = slices.Clone(v)
	}
	touched := map[string]struct{}{}
	for _, op := range b.ops {
		touched[op.collection] = struct{}{}
		if docs[op.collection] == nil {
			docs[op.collection] = map[string]map[string]any{}
		}
		existing, exists := docs[op.collection][op.id]
		switch op.kind {
		case "set":
			next := jsonFields(op.fields)
			if op.merge && exists {
				for k, v := range next {
					existing[k] = v
				}
				next = existing
			}
			if !exists {
				order[op.collection] = append(order[op.collection], op.id)
			}
			docs[op.collection][op.id] = next
		case "update":
			if !exists {
				f.mu.Unlock()
				return domain.NotFoundError{Kind: domain.KindDocument, Key: op.collection + "/" + op.id}
			}
			for k, v := range jsonFields(op.fields) {
				existing[k] = v
			}
		case "delete":
			delete(docs[op.collection], op.id)
			order[op.collection] = slices.DeleteFunc(order[op.collection], func(id string) bool { return id == op.id })
		}
	}
	f.docs = docs
	f.order = order
	f.commits++
	subs := slices.Clone(f.subs)
	f.mu.Unlock()

	for _, sub := range subs {
		if _, ok := touched[sub.collection]; !ok {
			continue
		}
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
	return nil
}

// jsonFields normalizes values the way a JSON document store would.
func jsonFields(fields Fields) map[string]any {
	out := map[string]any{}
	raw, _ := json.Marshal(fields)
	_ = json.Unmarshal(raw, &out)
	return out
}

func jsonValue(v any) any {
	var out any
	raw, _ := json.Marshal(v)
	_ = json.Unmarshal(raw, &out)
	return out
}

func matchesFilters(doc map[string]any, filters []Filter) bool {
	for _, filter := range filters {
		if !reflect.DeepEqual(doc[filter.Field], jsonValue(filter.Value)) {
			return false
		}
	}
	return true
}

func encodeFakeDoc(id string, doc map[string]any) Document {
	raw, _ := json.Marshal(doc)
	return Document{ID: id, Data: raw}
}

func cloneFakeDocs(in map[string]map[string]map[string]any) map[string]map[string]map[string]any {
	out := make(map[string]map[string]map[string]any, len(in))
	for collection, docs := range in {
		out[collection] = make(map[string]map[string]any, len(docs))
		for id, doc := range docs {
			copied := make(map[string]any, len(doc))
			for k, v := range doc {
				copied[k] = v
			}
			out[collection][id] = copied
		}
	}
	return out
}
