package app

import (
	"context"
	"slices"
	"strings"

	"github.com/hylla/sudsboard/internal/domain"
)

// SetAppliesInput identifies one (asset, category, activity) combination.
type SetAppliesInput struct {
	AssetTypeID  string
	Category     string
	ActivityName string
	Applies      bool
}

// SetApplies toggles whether an activity applies to an asset.
// The first positive toggle creates the record; later toggles only flip applies.
// created reports whether a record was created. Turning off a missing record is a no-op.
func (s *Service) SetApplies(ctx context.Context, in SetAppliesInput) (domain.ActivityRecord, bool, error) {
	key := domain.ActivityKey{
		AssetTypeID:  in.AssetTypeID,
		Category:     in.Category,
		ActivityName: in.ActivityName,
	}.Normalize()
	if err := key.Validate(); err != nil {
		return domain.ActivityRecord{}, false, err
	}
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return domain.ActivityRecord{}, false, err
	}
	key = tax.CanonicalKey(key)
	if _, err := s.GetAsset(ctx, key.AssetTypeID); err != nil {
		return domain.ActivityRecord{}, false, err
	}
	existing, found, err := s.findRecord(ctx, key)
	if err != nil {
		return domain.ActivityRecord{}, false, err
	}
	if !found && !in.Applies {
		return domain.ActivityRecord{}, false, nil
	}
	if found && existing.Applies == in.Applies {
		return existing, false, nil
	}
	actorID, err := s.actorID(ctx)
	if err != nil {
		return domain.ActivityRecord{}, false, err
	}
	now := s.now()
	if !found {
		record, err := domain.NewActivityRecord("", key, actorID, now)
		if err != nil {
			return domain.ActivityRecord{}, false, err
		}
		id, err := s.store.Add(ctx, CollectionActivityRecords, recordFields(record))
		if err != nil {
			return domain.ActivityRecord{}, false, storeErr("create activity record", err)
		}
		record.ID = id
		s.logger.Info("activity record created", "record_id", id, "asset_id", key.AssetTypeID, "category", key.Category, "activity", key.ActivityName)
		return record, true, nil
	}
	existing.Applies = in.Applies
	existing.LastUpdatedBy = actorID
	existing.Timestamp = now
	fields := Fields{
		"applies":       existing.Applies,
		"lastUpdatedBy": existing.LastUpdatedBy,
		"timestamp":     ts(existing.Timestamp),
	}
	if err := s.store.Update(ctx, CollectionActivityRecords, existing.ID, fields); err != nil {
		return domain.ActivityRecord{}, false, storeErr("set applies", notFoundAs(err, domain.KindActivityRecord, existing.ID))
	}
	return existing, false, nil
}

// UpdateField sets one proposal field and resets validation to pending.
func (s *Service) UpdateField(ctx context.Context, recordID string, field domain.Field, value any) (domain.ActivityRecord, error) {
	record, err := s.GetRecord(ctx, recordID)
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	actorID, err := s.actorID(ctx)
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	if err := record.SetField(field, value, actorID, s.now()); err != nil {
		return domain.ActivityRecord{}, err
	}
	fields := Fields{
		string(field):      record.FieldValue(field),
		"validationStatus": string(record.ValidationStatus),
		"lastUpdatedBy":    record.LastUpdatedBy,
		"timestamp":        ts(record.Timestamp),
	}
	if err := s.store.Update(ctx, CollectionActivityRecords, record.ID, fields); err != nil {
		return domain.ActivityRecord{}, storeErr("update field", notFoundAs(err, domain.KindActivityRecord, record.ID))
	}
	return record, nil
}

// SetValidation records a reviewer decision. A blank validator falls back to the current actor.
func (s *Service) SetValidation(ctx context.Context, recordID string, status domain.ValidationStatus, comment, validatorID string) (domain.ActivityRecord, error) {
	parsed, err := domain.ParseValidationStatus(string(status))
	if err != nil || strings.TrimSpace(string(status)) == "" {
		return domain.ActivityRecord{}, domain.ValidationInputError{Field: "validation_status", Reason: "must be pending, validated, or rejected"}
	}
	status = parsed
	record, err := s.GetRecord(ctx, recordID)
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	validatorID = strings.TrimSpace(validatorID)
	if validatorID == "" {
		if validatorID, err = s.actorID(ctx); err != nil {
			return domain.ActivityRecord{}, err
		}
	}
	record.SetValidation(status, comment, validatorID)
	fields := Fields{
		"validationStatus": string(record.ValidationStatus),
		"validatorComment": record.ValidatorComment,
		"validatedBy":      record.ValidatedBy,
	}
	if err := s.store.Update(ctx, CollectionActivityRecords, record.ID, fields); err != nil {
		return domain.ActivityRecord{}, storeErr("set validation", notFoundAs(err, domain.KindActivityRecord, record.ID))
	}
	s.logger.Info("activity record validated", "record_id", record.ID, "status", string(status), "validator", validatorID)
	return record, nil
}

// GetRecord returns one activity record.
func (s *Service) GetRecord(ctx context.Context, recordID string) (domain.ActivityRecord, error) {
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return domain.ActivityRecord{}, domain.ValidationInputError{Field: "record_id"}
	}
	doc, err := s.store.Get(ctx, CollectionActivityRecords, recordID)
	if err != nil {
		return domain.ActivityRecord{}, storeErr("get activity record", notFoundAs(err, domain.KindActivityRecord, recordID))
	}
	record, err := decodeRecord(doc)
	if err != nil {
		return domain.ActivityRecord{}, storeErr("decode activity record", err)
	}
	return record, nil
}

// FindRecord looks a record up by its logical key.
func (s *Service) FindRecord(ctx context.Context, key domain.ActivityKey) (domain.ActivityRecord, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return domain.ActivityRecord{}, err
	}
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	key = tax.CanonicalKey(key)
	record, found, err := s.findRecord(ctx, key)
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	if !found {
		return domain.ActivityRecord{}, domain.NotFoundError{
			Kind: domain.KindActivityRecord,
			Key:  key.AssetTypeID + "/" + key.Category + "/" + key.ActivityName,
		}
	}
	return record, nil
}

// ListRecords returns stored records, optionally only those of one asset.
func (s *Service) ListRecords(ctx context.Context, assetID string) ([]domain.ActivityRecord, error) {
	var filters []Filter
	if assetID = strings.TrimSpace(assetID); assetID != "" {
		filters = append(filters, Eq("assetTypeId", assetID))
	}
	docs, err := s.store.Query(ctx, CollectionActivityRecords, filters...)
	if err != nil {
		return nil, storeErr("list activity records", err)
	}
	return decodeRecords(docs)
}

// findRecord returns the first record stored under key.
func (s *Service) findRecord(ctx context.Context, key domain.ActivityKey) (domain.ActivityRecord, bool, error) {
	docs, err := s.store.Query(ctx, CollectionActivityRecords,
		Eq("assetTypeId", key.AssetTypeID),
		Eq("category", key.Category),
		Eq("activityName", key.ActivityName),
	)
	if err != nil {
		return domain.ActivityRecord{}, false, storeErr("query activity record", err)
	}
	if len(docs) == 0 {
		return domain.ActivityRecord{}, false, nil
	}
	record, err := decodeRecord(docs[0])
	if err != nil {
		return domain.ActivityRecord{}, false, storeErr("decode activity record", err)
	}
	return record, true, nil
}

// decodeRecords decodes record documents in store order.
func decodeRecords(docs []Document) ([]domain.ActivityRecord, error) {
	out := make([]domain.ActivityRecord, 0, len(docs))
	for _, doc := range docs {
		record, err := decodeRecord(doc)
		if err != nil {
			return nil, storeErr("decode activity record", err)
		}
		out = append(out, record)
	}
	return slices.Clip(out), nil
}
