package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hylla/sudsboard/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "sudsboard.snapshot.v1"

// SnapshotFormat selects the snapshot encoding.
type SnapshotFormat string

// SnapshotFormat values.
const (
	SnapshotJSON SnapshotFormat = "json"
	SnapshotYAML SnapshotFormat = "yaml"
)

// ParseSnapshotFormat normalizes a format name. Blank means JSON.
func ParseSnapshotFormat(raw string) (SnapshotFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return SnapshotJSON, nil
	case "yaml", "yml":
		return SnapshotYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", ErrInvalidSnapshot, raw)
	}
}

// Snapshot is the portable content of one namespace.
type Snapshot struct {
	Version       string              `json:"version" yaml:"version"`
	ExportedAt    time.Time           `json:"exported_at" yaml:"exported_at"`
	Categories    []string            `json:"categories" yaml:"categories"`
	ActivityNames map[string][]string `json:"activity_names" yaml:"activity_names"`
	Assets        []SnapshotAsset     `json:"assets" yaml:"assets"`
	Contracts     []SnapshotContract  `json:"contracts" yaml:"contracts"`
	Records       []SnapshotRecord    `json:"records" yaml:"records"`
}

// SnapshotAsset is one asset type in a snapshot.
type SnapshotAsset struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description,omitempty" yaml:"description,omitempty"`
	ImageURLs     []string `json:"image_urls,omitempty" yaml:"image_urls,omitempty"`
	LocationTypes []string `json:"location_types,omitempty" yaml:"location_types,omitempty"`
	Order         int      `json:"order" yaml:"order"`
}

// SnapshotContract is one contract in a snapshot.
type SnapshotContract struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Responsible string `json:"responsible,omitempty" yaml:"responsible,omitempty"`
	Summary     string `json:"summary,omitempty" yaml:"summary,omitempty"`
	LogoURL     string `json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
}

// SnapshotRecord is one activity record in a snapshot.
type SnapshotRecord struct {
	ID                  string    `json:"id" yaml:"id"`
	AssetTypeID         string    `json:"asset_type_id" yaml:"asset_type_id"`
	Category            string    `json:"category" yaml:"category"`
	ActivityName        string    `json:"activity_name" yaml:"activity_name"`
	Applies             bool      `json:"applies" yaml:"applies"`
	Status              string    `json:"status,omitempty" yaml:"status,omitempty"`
	Comment             string    `json:"comment,omitempty" yaml:"comment,omitempty"`
	Frequency           string    `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	InvolvedContracts   []string  `json:"involved_contracts,omitempty" yaml:"involved_contracts,omitempty"`
	DependentActivities []string  `json:"dependent_activities,omitempty" yaml:"dependent_activities,omitempty"`
	ValidationStatus    string    `json:"validation_status" yaml:"validation_status"`
	ValidatorComment    string    `json:"validator_comment,omitempty" yaml:"validator_comment,omitempty"`
	ValidatedBy         string    `json:"validated_by,omitempty" yaml:"validated_by,omitempty"`
	LastUpdatedBy       string    `json:"last_updated_by,omitempty" yaml:"last_updated_by,omitempty"`
	Timestamp           time.Time `json:"timestamp" yaml:"timestamp"`
}

// ExportSnapshot reads the whole namespace into a snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Version:       SnapshotVersion,
		ExportedAt:    s.now(),
		Categories:    nonNilStrings(ds.Taxonomy.Categories),
		ActivityNames: map[string][]string{},
		Assets:        make([]SnapshotAsset, 0, len(ds.Assets)),
		Contracts:     make([]SnapshotContract, 0, len(ds.Contracts)),
		Records:       make([]SnapshotRecord, 0, len(ds.Records)),
	}
	for category, names := range ds.Taxonomy.Activities {
		snap.ActivityNames[category] = nonNilStrings(names)
	}
	for _, a := range ds.Assets {
		snap.Assets = append(snap.Assets, snapshotAssetFromDomain(a))
	}
	for _, c := range ds.Contracts {
		snap.Contracts = append(snap.Contracts, snapshotContractFromDomain(c))
	}
	for _, r := range ds.Records {
		snap.Records = append(snap.Records, snapshotRecordFromDomain(r))
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot replaces the namespace content with snap in one batch. Document ids are preserved.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	batch := s.store.Batch()
	for _, collection := range Collections() {
		docs, err := s.store.Query(ctx, collection)
		if err != nil {
			return storeErr("read "+collection, err)
		}
		for _, doc := range docs {
			batch.Delete(collection, doc.ID)
		}
	}

	tax := domain.Taxonomy{Categories: nonNilStrings(snap.Categories), Activities: map[string][]string{}}
	for category, names := range snap.ActivityNames {
		tax.Activities[category] = nonNilStrings(names)
	}
	batch.Set(CollectionSettings, DocMaintenanceCategories, categoriesFields(tax), false)
	batch.Set(CollectionSettings, DocDefinedActivityNames, activityNamesFields(tax), false)
	for _, a := range snap.Assets {
		asset, err := a.toDomain()
		if err != nil {
			return err
		}
		batch.Set(CollectionAssetTypes, asset.ID, assetFields(asset), false)
	}
	for _, c := range snap.Contracts {
		batch.Set(CollectionContracts, c.ID, contractFields(c.toDomain()), false)
	}
	for _, r := range snap.Records {
		record, err := r.toDomain()
		if err != nil {
			return err
		}
		batch.Set(CollectionActivityRecords, record.ID, recordFields(record), false)
	}
	if err := batch.Commit(ctx); err != nil {
		return storeErr("import snapshot", err)
	}
	s.logger.Info("snapshot imported",
		"assets", len(snap.Assets),
		"contracts", len(snap.Contracts),
		"records", len(snap.Records),
	)
	return nil
}

// Validate checks version, ids, and enumerated values.
func (s *Snapshot) Validate() error {
	if strings.TrimSpace(s.Version) != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}
	seenCategories := map[string]struct{}{}
	for _, category := range s.Categories {
		category = strings.TrimSpace(category)
		if category == "" {
			return fmt.Errorf("%w: blank category", ErrInvalidSnapshot)
		}
		if _, ok := seenCategories[category]; ok {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidSnapshot, category)
		}
		seenCategories[category] = struct{}{}
	}
	for category, names := range s.ActivityNames {
		if _, ok := seenCategories[category]; !ok {
			return fmt.Errorf("%w: activity names for unknown category %q", ErrInvalidSnapshot, category)
		}
		seen := map[string]struct{}{}
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("%w: blank activity name in %q", ErrInvalidSnapshot, category)
			}
			if _, ok := seen[name]; ok {
				return fmt.Errorf("%w: duplicate activity name %q in %q", ErrInvalidSnapshot, name, category)
			}
			seen[name] = struct{}{}
		}
	}

	assetIDs := map[string]struct{}{}
	for i, a := range s.Assets {
		if err := requireSnapshotID(a.ID, "assets", i, assetIDs); err != nil {
			return err
		}
		if _, err := a.toDomain(); err != nil {
			return fmt.Errorf("%w: assets[%d]: %v", ErrInvalidSnapshot, i, err)
		}
	}
	contractIDs := map[string]struct{}{}
	for i, c := range s.Contracts {
		if err := requireSnapshotID(c.ID, "contracts", i, contractIDs); err != nil {
			return err
		}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: contracts[%d] has a blank name", ErrInvalidSnapshot, i)
		}
	}
	recordIDs := map[string]struct{}{}
	for i, r := range s.Records {
		if err := requireSnapshotID(r.ID, "records", i, recordIDs); err != nil {
			return err
		}
		if _, err := r.toDomain(); err != nil {
			return fmt.Errorf("%w: records[%d]: %v", ErrInvalidSnapshot, i, err)
		}
	}
	return nil
}

// EncodeSnapshot writes snap in the selected format.
func EncodeSnapshot(w io.Writer, snap Snapshot, format SnapshotFormat) error {
	switch format {
	case SnapshotYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot yaml: %w", err)
		}
		return enc.Close()
	case SnapshotJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode snapshot json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidSnapshot, format)
	}
}

// DecodeSnapshot reads a JSON or YAML snapshot, detecting the format from the first byte.
func DecodeSnapshot(r io.Reader) (Snapshot, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return Snapshot{}, fmt.Errorf("%w: empty input", ErrInvalidSnapshot)
	}
	var snap Snapshot
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &snap); err != nil {
			return Snapshot{}, errors.Join(ErrInvalidSnapshot, fmt.Errorf("decode snapshot json: %w", err))
		}
		return snap, nil
	}
	if err := yaml.Unmarshal(trimmed, &snap); err != nil {
		return Snapshot{}, errors.Join(ErrInvalidSnapshot, fmt.Errorf("decode snapshot yaml: %w", err))
	}
	return snap, nil
}

// requireSnapshotID rejects blank and repeated ids.
func requireSnapshotID(id, section string, idx int, seen map[string]struct{}) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: %s[%d] has a blank id", ErrInvalidSnapshot, section, idx)
	}
	if _, ok := seen[id]; ok {
		return fmt.Errorf("%w: duplicate %s id %q", ErrInvalidSnapshot, section, id)
	}
	seen[id] = struct{}{}
	return nil
}

// sort orders every section deterministically.
func (s *Snapshot) sort() {
	slices.SortStableFunc(s.Assets, func(a, b SnapshotAsset) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortStableFunc(s.Contracts, func(a, b SnapshotContract) int {
		return strings.Compare(a.ID, b.ID)
	})
	slices.SortStableFunc(s.Records, func(a, b SnapshotRecord) int {
		if c := strings.Compare(a.AssetTypeID, b.AssetTypeID); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// snapshotAssetFromDomain maps an asset type.
func snapshotAssetFromDomain(a domain.AssetType) SnapshotAsset {
	return SnapshotAsset{
		ID:            a.ID,
		Name:          a.Name,
		Description:   a.Description,
		ImageURLs:     slices.Clone(a.ImageURLs),
		LocationTypes: locationStrings(a.LocationTypes),
		Order:         a.Order,
	}
}

// snapshotContractFromDomain maps a contract.
func snapshotContractFromDomain(c domain.Contract) SnapshotContract {
	return SnapshotContract{
		ID:          c.ID,
		Name:        c.Name,
		Responsible: c.Responsible,
		Summary:     c.Summary,
		LogoURL:     c.LogoURL,
	}
}

// snapshotRecordFromDomain maps an activity record.
func snapshotRecordFromDomain(r domain.ActivityRecord) SnapshotRecord {
	return SnapshotRecord{
		ID:                  r.ID,
		AssetTypeID:         r.AssetTypeID,
		Category:            r.Category,
		ActivityName:        r.ActivityName,
		Applies:             r.Applies,
		Status:              string(r.Status),
		Comment:             r.Comment,
		Frequency:           r.Frequency,
		InvolvedContracts:   slices.Clone(r.InvolvedContracts),
		DependentActivities: slices.Clone(r.DependentActivities),
		ValidationStatus:    string(r.ValidationStatus),
		ValidatorComment:    r.ValidatorComment,
		ValidatedBy:         r.ValidatedBy,
		LastUpdatedBy:       r.LastUpdatedBy,
		Timestamp:           r.Timestamp,
	}
}

// toDomain maps a snapshot asset, parsing its location tags.
func (a SnapshotAsset) toDomain() (domain.AssetType, error) {
	tags, err := domain.ParseLocationTags(a.LocationTypes)
	if err != nil {
		return domain.AssetType{}, err
	}
	asset, err := domain.NewAssetType(a.ID, domain.AssetInput{
		Name:          a.Name,
		Description:   a.Description,
		ImageURLs:     a.ImageURLs,
		LocationTypes: tags,
	}, a.Order)
	if err != nil {
		return domain.AssetType{}, err
	}
	return asset, nil
}

// toDomain maps a snapshot contract.
func (c SnapshotContract) toDomain() domain.Contract {
	return domain.Contract{
		ID:          strings.TrimSpace(c.ID),
		Name:        strings.TrimSpace(c.Name),
		Responsible: c.Responsible,
		Summary:     c.Summary,
		LogoURL:     c.LogoURL,
	}
}

// toDomain maps a snapshot record, parsing its enumerated fields.
func (r SnapshotRecord) toDomain() (domain.ActivityRecord, error) {
	key := domain.ActivityKey{AssetTypeID: r.AssetTypeID, Category: r.Category, ActivityName: r.ActivityName}.Normalize()
	if err := key.Validate(); err != nil {
		return domain.ActivityRecord{}, err
	}
	status, err := domain.ParseStatus(r.Status)
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	validation, err := domain.ParseValidationStatus(r.ValidationStatus)
	if err != nil {
		return domain.ActivityRecord{}, err
	}
	return domain.ActivityRecord{
		ID:                  strings.TrimSpace(r.ID),
		AssetTypeID:         key.AssetTypeID,
		Category:            key.Category,
		ActivityName:        key.ActivityName,
		Applies:             r.Applies,
		Status:              status,
		Comment:             r.Comment,
		Frequency:           r.Frequency,
		InvolvedContracts:   nonNilStrings(r.InvolvedContracts),
		DependentActivities: nonNilStrings(r.DependentActivities),
		ValidationStatus:    validation,
		ValidatorComment:    r.ValidatorComment,
		ValidatedBy:         r.ValidatedBy,
		LastUpdatedBy:       r.LastUpdatedBy,
		Timestamp:           r.Timestamp.UTC(),
	}, nil
}
