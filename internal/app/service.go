package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/sudsboard/internal/domain"
)

// DefaultFrequencies lists the selectable maintenance frequencies.
var DefaultFrequencies = []string{"Diario", "Semanal", "Mensual", "Trimestral", "Anual"}

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Frequencies []string
	Completer   TextCompleter
	Logger      Logger
}

// Clock returns the current time.
type Clock func() time.Time

// Service implements every mutating and reading operation over one namespace.
type Service struct {
	store       DocumentStore
	actors      ActorProvider
	completer   TextCompleter
	clock       Clock
	logger      Logger
	frequencies []string
}

// NewService constructs a service over store.
func NewService(store DocumentStore, actors ActorProvider, clock Clock, cfg ServiceConfig) *Service {
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	frequencies := compactList(cfg.Frequencies)
	if len(frequencies) == 0 {
		frequencies = append([]string(nil), DefaultFrequencies...)
	}
	return &Service{
		store:       store,
		actors:      actors,
		completer:   cfg.Completer,
		clock:       clock,
		logger:      logger,
		frequencies: frequencies,
	}
}

// Frequencies returns the selectable frequency options.
func (s *Service) Frequencies() []string {
	return append([]string(nil), s.frequencies...)
}

// Taxonomy returns the current category and activity-name order.
func (s *Service) Taxonomy(ctx context.Context) (domain.Taxonomy, error) {
	return s.loadTaxonomy(ctx)
}

// AddCategory appends a category at the end of the order.
func (s *Service) AddCategory(ctx context.Context, name string) (string, error) {
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return "", err
	}
	stored, err := tax.AddCategory(name)
	if err != nil {
		return "", err
	}
	if err := s.store.Set(ctx, CollectionSettings, DocMaintenanceCategories, categoriesFields(tax), true); err != nil {
		return "", storeErr("add category", err)
	}
	s.logger.Info("category added", "category", stored)
	return stored, nil
}

// DeleteCategory removes a category, its activity names, and every record filed under it in one batch.
// It returns the number of deleted records.
func (s *Service) DeleteCategory(ctx context.Context, name string) (int, error) {
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return 0, err
	}
	name = domain.NormalizeCategoryName(name)
	if err := tax.RemoveCategory(name); err != nil {
		return 0, err
	}
	docs, err := s.store.Query(ctx, CollectionActivityRecords, Eq("category", name))
	if err != nil {
		return 0, storeErr("query category records", err)
	}
	batch := s.store.Batch()
	batch.Set(CollectionSettings, DocMaintenanceCategories, categoriesFields(tax), true)
	batch.Set(CollectionSettings, DocDefinedActivityNames, activityNamesFields(tax), false)
	for _, doc := range docs {
		batch.Delete(CollectionActivityRecords, doc.ID)
	}
	if err := batch.Commit(ctx); err != nil {
		return 0, storeErr("delete category", err)
	}
	s.logger.Info("category deleted", "category", name, "records", len(docs))
	return len(docs), nil
}

// MoveCategory swaps a category with its neighbor. moved is false at a boundary.
func (s *Service) MoveCategory(ctx context.Context, name string, d domain.Direction) (bool, error) {
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return false, err
	}
	moved, err := tax.MoveCategory(name, d)
	if err != nil || !moved {
		return false, err
	}
	if err := s.store.Set(ctx, CollectionSettings, DocMaintenanceCategories, categoriesFields(tax), true); err != nil {
		return false, storeErr("move category", err)
	}
	return true, nil
}

// AddActivityName appends a normalized activity name to category.
func (s *Service) AddActivityName(ctx context.Context, category, name string) (string, error) {
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return "", err
	}
	stored, err := tax.AddActivity(category, name)
	if err != nil {
		return "", err
	}
	category = domain.NormalizeCategoryName(category)
	if err := s.store.Set(ctx, CollectionSettings, DocDefinedActivityNames, Fields{category: tax.ActivityNames(category)}, true); err != nil {
		return "", storeErr("add activity name", err)
	}
	s.logger.Info("activity name added", "category", category, "activity", stored)
	return stored, nil
}

// DeleteActivityName removes one activity name and its records in one batch.
// It returns the number of deleted records.
func (s *Service) DeleteActivityName(ctx context.Context, category, name string) (int, error) {
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return 0, err
	}
	stored, err := tax.RemoveActivity(category, name)
	if err != nil {
		return 0, err
	}
	category = domain.NormalizeCategoryName(category)
	docs, err := s.store.Query(ctx, CollectionActivityRecords, Eq("category", category), Eq("activityName", stored))
	if err != nil {
		return 0, storeErr("query activity records", err)
	}
	batch := s.store.Batch()
	batch.Set(CollectionSettings, DocDefinedActivityNames, Fields{category: tax.ActivityNames(category)}, true)
	for _, doc := range docs {
		batch.Delete(CollectionActivityRecords, doc.ID)
	}
	if err := batch.Commit(ctx); err != nil {
		return 0, storeErr("delete activity name", err)
	}
	s.logger.Info("activity name deleted", "category", category, "activity", stored, "records", len(docs))
	return len(docs), nil
}

// RenameActivityName renames an activity in place and rewrites every matching record in one batch.
func (s *Service) RenameActivityName(ctx context.Context, category, oldName, newName string) (string, error) {
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return "", err
	}
	stored, renamed, err := tax.RenameActivity(category, oldName, newName)
	if err != nil {
		return "", err
	}
	if stored == renamed {
		return renamed, nil
	}
	category = domain.NormalizeCategoryName(category)
	docs, err := s.store.Query(ctx, CollectionActivityRecords, Eq("category", category), Eq("activityName", stored))
	if err != nil {
		return "", storeErr("query activity records", err)
	}
	batch := s.store.Batch()
	batch.Set(CollectionSettings, DocDefinedActivityNames, Fields{category: tax.ActivityNames(category)}, true)
	for _, doc := range docs {
		batch.Update(CollectionActivityRecords, doc.ID, Fields{"activityName": renamed})
	}
	if err := batch.Commit(ctx); err != nil {
		return "", storeErr("rename activity name", err)
	}
	s.logger.Info("activity name renamed", "category", category, "from", stored, "to", renamed, "records", len(docs))
	return renamed, nil
}

// MoveActivityName swaps an activity name with its neighbor inside category.
func (s *Service) MoveActivityName(ctx context.Context, category, name string, d domain.Direction) (bool, error) {
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return false, err
	}
	moved, err := tax.MoveActivity(category, name, d)
	if err != nil || !moved {
		return false, err
	}
	category = domain.NormalizeCategoryName(category)
	if err := s.store.Set(ctx, CollectionSettings, DocDefinedActivityNames, Fields{category: tax.ActivityNames(category)}, true); err != nil {
		return false, storeErr("move activity name", err)
	}
	return true, nil
}

// loadTaxonomy reads both settings documents. Missing documents read as empty.
func (s *Service) loadTaxonomy(ctx context.Context) (domain.Taxonomy, error) {
	categories, err := s.getOptional(ctx, CollectionSettings, DocMaintenanceCategories)
	if err != nil {
		return domain.Taxonomy{}, err
	}
	names, err := s.getOptional(ctx, CollectionSettings, DocDefinedActivityNames)
	if err != nil {
		return domain.Taxonomy{}, err
	}
	tax, err := decodeTaxonomy(categories, names)
	if err != nil {
		return domain.Taxonomy{}, storeErr("decode taxonomy", err)
	}
	return tax, nil
}

// getOptional returns nil when the document does not exist.
func (s *Service) getOptional(ctx context.Context, collection, id string) (*Document, error) {
	doc, err := s.store.Get(ctx, collection, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get "+collection+"/"+id, err)
	}
	return &doc, nil
}

// actorID resolves the actor stamped on mutations.
func (s *Service) actorID(ctx context.Context) (string, error) {
	id, err := resolveActorID(ctx, s.actors)
	if err != nil {
		return "", fmt.Errorf("resolve actor: %w", err)
	}
	return id, nil
}

// now returns the service clock in UTC.
func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// categoriesFields maps the category order to the settings document.
func categoriesFields(tax domain.Taxonomy) Fields {
	return Fields{"categories": nonNilStrings(tax.Categories)}
}

// storeErr keeps domain errors intact and wraps anything else as a service failure.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var svc domain.ServiceError
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDuplicate),
		errors.Is(err, domain.ErrInvalidInput),
		errors.As(err, &svc):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return domain.ServiceError{Message: fmt.Sprintf("%s: %v", op, err), Err: err}
	}
}

// compactList trims entries and drops blanks and duplicates.
func compactList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
