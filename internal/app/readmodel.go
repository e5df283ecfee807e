package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hylla/sudsboard/internal/coverage"
	"github.com/hylla/sudsboard/internal/domain"
)

var errStreamClosed = errors.New("subscription closed")

// ReadModel keeps one consistent in-memory dataset fed by a single subscription per collection.
// Every view reads from it instead of re-querying the store.
type ReadModel struct {
	store  DocumentStore
	logger Logger

	mu      sync.RWMutex
	docs    map[string][]Document
	dataset coverage.Dataset
	version uint64
	failure error

	ready     chan struct{}
	readyOnce sync.Once
	changes   chan struct{}
}

// NewReadModel constructs a read model over store.
func NewReadModel(store DocumentStore, logger Logger) *ReadModel {
	if logger == nil {
		logger = nopLogger{}
	}
	return &ReadModel{
		store:   store,
		logger:  logger,
		docs:    map[string][]Document{},
		dataset: emptyDataset(),
		ready:   make(chan struct{}),
		changes: make(chan struct{}, 1),
	}
}

// Run subscribes to every collection and applies snapshots until ctx is done.
func (m *ReadModel) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	group, gctx := errgroup.WithContext(ctx)
	for _, collection := range Collections() {
		stream, err := m.store.Subscribe(gctx, collection)
		if err != nil {
			cancel()
			_ = group.Wait()
			return storeErr("subscribe "+collection, err)
		}
		group.Go(func() error {
			for snap := range stream {
				if snap.Err != nil {
					return storeErr("watch "+collection, snap.Err)
				}
				m.apply(snap)
			}
			if gctx.Err() != nil {
				return nil
			}
			return storeErr("watch "+collection, errStreamClosed)
		})
	}
	if err := group.Wait(); err != nil {
		err = fmt.Errorf("read model: %w", err)
		m.mu.Lock()
		m.failure = err
		m.mu.Unlock()
		m.notify()
		m.logger.Error("read model stopped", "err", err)
		return err
	}
	return nil
}

// Err reports why the read model stopped following the store, if it did.
func (m *ReadModel) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failure
}

// WaitReady blocks until every collection delivered its first snapshot.
func (m *ReadModel) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Changes signals after each applied snapshot. Signals coalesce.
func (m *ReadModel) Changes() <-chan struct{} {
	return m.changes
}

// Version counts applied snapshots.
func (m *ReadModel) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Dataset returns the current snapshot. Callers must not modify it.
func (m *ReadModel) Dataset() coverage.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dataset
}

// ResolveAsset resolves one asset from the cached snapshot.
func (m *ReadModel) ResolveAsset(assetID string) ([]coverage.ResolvedActivity, error) {
	ds := m.Dataset()
	asset, ok := ds.Asset(assetID)
	if !ok {
		return nil, domain.NotFoundError{Kind: domain.KindAssetType, Key: assetID}
	}
	return resolvedOrEmpty(coverage.Resolve(asset.ID, ds.Records, ds.Taxonomy)), nil
}

// ContractView builds one contract view from the cached snapshot.
func (m *ReadModel) ContractView(contractID string) (coverage.ContractView, error) {
	ds := m.Dataset()
	contract, err := contractByID(ds, contractID)
	if err != nil {
		return coverage.ContractView{}, err
	}
	return coverage.BuildContractView(ds, contract), nil
}

// Pivot builds the cross-asset summary from the cached snapshot.
func (m *ReadModel) Pivot(opts coverage.PivotOptions) coverage.Pivot {
	return coverage.BuildPivot(m.Dataset(), opts)
}

// apply stores one collection snapshot and rebuilds the dataset.
func (m *ReadModel) apply(snap CollectionSnapshot) {
	m.mu.Lock()
	next := maps.Clone(m.docs)
	next[snap.Collection] = snap.Documents
	ds, err := buildDataset(next)
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("read model snapshot rejected", "collection", snap.Collection, "err", err)
		return
	}
	m.docs = next
	m.dataset = ds
	m.version++
	complete := len(m.docs) == len(Collections())
	m.mu.Unlock()

	if complete {
		m.readyOnce.Do(func() { close(m.ready) })
	}
	m.notify()
	m.logger.Debug("read model updated", "collection", snap.Collection, "documents", len(snap.Documents))
}

// notify posts a coalesced change signal.
func (m *ReadModel) notify() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}

// buildDataset decodes every cached collection.
func buildDataset(docs map[string][]Document) (coverage.Dataset, error) {
	var categories, names *Document
	for _, doc := range docs[CollectionSettings] {
		switch doc.ID {
		case DocMaintenanceCategories:
			categories = &doc
		case DocDefinedActivityNames:
			names = &doc
		}
	}
	tax, err := decodeTaxonomy(categories, names)
	if err != nil {
		return coverage.Dataset{}, err
	}
	assets, _, err := orderAssets(docs[CollectionAssetTypes])
	if err != nil {
		return coverage.Dataset{}, err
	}
	contracts, err := decodeContracts(docs[CollectionContracts])
	if err != nil {
		return coverage.Dataset{}, err
	}
	records, err := decodeRecords(docs[CollectionActivityRecords])
	if err != nil {
		return coverage.Dataset{}, err
	}
	return coverage.Dataset{Taxonomy: tax, Assets: assets, Contracts: contracts, Records: records}, nil
}

// emptyDataset returns a dataset with non-nil collections.
func emptyDataset() coverage.Dataset {
	return coverage.Dataset{
		Taxonomy:  domain.Taxonomy{Categories: []string{}, Activities: map[string][]string{}},
		Assets:    []domain.AssetType{},
		Contracts: []domain.Contract{},
		Records:   []domain.ActivityRecord{},
	}
}
