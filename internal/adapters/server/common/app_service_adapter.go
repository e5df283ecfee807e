package common

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hylla/sudsboard/internal/app"
	"github.com/hylla/sudsboard/internal/coverage"
	"github.com/hylla/sudsboard/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

var _ Service = (*AppServiceAdapter)(nil)

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// Taxonomy returns the catalog plus the selectable frequencies.
func (a *AppServiceAdapter) Taxonomy(ctx context.Context) (Taxonomy, error) {
	tax, err := a.service.Taxonomy(ctx)
	if err != nil {
		return Taxonomy{}, fmt.Errorf("taxonomy: %w", err)
	}
	return mapTaxonomy(tax, a.service.Frequencies()), nil
}

// AddCategory appends a category.
func (a *AppServiceAdapter) AddCategory(ctx context.Context, name string) (string, error) {
	out, err := a.service.AddCategory(ctx, name)
	if err != nil {
		return "", fmt.Errorf("add category: %w", err)
	}
	return out, nil
}

// DeleteCategory removes a category and its records.
func (a *AppServiceAdapter) DeleteCategory(ctx context.Context, name string) (CascadeResult, error) {
	removed, err := a.service.DeleteCategory(ctx, name)
	if err != nil {
		return CascadeResult{}, fmt.Errorf("delete category: %w", err)
	}
	return CascadeResult{Name: name, RemovedRecords: removed}, nil
}

// MoveCategory swaps a category with its neighbour.
func (a *AppServiceAdapter) MoveCategory(ctx context.Context, name, direction string) (MoveResult, error) {
	d, err := domain.ParseDirection(direction)
	if err != nil {
		return MoveResult{}, err
	}
	moved, err := a.service.MoveCategory(ctx, name, d)
	if err != nil {
		return MoveResult{}, fmt.Errorf("move category: %w", err)
	}
	return MoveResult{Moved: moved}, nil
}

// AddActivityName appends an activity name to a category.
func (a *AppServiceAdapter) AddActivityName(ctx context.Context, category, name string) (string, error) {
	out, err := a.service.AddActivityName(ctx, category, name)
	if err != nil {
		return "", fmt.Errorf("add activity name: %w", err)
	}
	return out, nil
}

// DeleteActivityName removes an activity name and its records.
func (a *AppServiceAdapter) DeleteActivityName(ctx context.Context, category, name string) (CascadeResult, error) {
	removed, err := a.service.DeleteActivityName(ctx, category, name)
	if err != nil {
		return CascadeResult{}, fmt.Errorf("delete activity name: %w", err)
	}
	return CascadeResult{Name: name, RemovedRecords: removed}, nil
}

// RenameActivityName renames an activity name and rewrites its records.
func (a *AppServiceAdapter) RenameActivityName(ctx context.Context, category, oldName, newName string) (string, error) {
	out, err := a.service.RenameActivityName(ctx, category, oldName, newName)
	if err != nil {
		return "", fmt.Errorf("rename activity name: %w", err)
	}
	return out, nil
}

// MoveActivityName swaps an activity name with its neighbour.
func (a *AppServiceAdapter) MoveActivityName(ctx context.Context, category, name, direction string) (MoveResult, error) {
	d, err := domain.ParseDirection(direction)
	if err != nil {
		return MoveResult{}, err
	}
	moved, err := a.service.MoveActivityName(ctx, category, name, d)
	if err != nil {
		return MoveResult{}, fmt.Errorf("move activity name: %w", err)
	}
	return MoveResult{Moved: moved}, nil
}

// ListAssets lists assets in display order, optionally filtered by location tag.
func (a *AppServiceAdapter) ListAssets(ctx context.Context, locationTypes []string) ([]Asset, error) {
	tags, err := domain.ParseLocationTags(locationTypes)
	if err != nil {
		return nil, err
	}
	assets, err := a.service.ListAssets(ctx, tags...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	return mapAssets(assets), nil
}

// GetAsset returns one asset.
func (a *AppServiceAdapter) GetAsset(ctx context.Context, id string) (Asset, error) {
	asset, err := a.service.GetAsset(ctx, id)
	if err != nil {
		return Asset{}, fmt.Errorf("get asset: %w", err)
	}
	return mapAsset(asset), nil
}

// AddAsset registers a new asset.
func (a *AppServiceAdapter) AddAsset(ctx context.Context, in AssetRequest) (Asset, error) {
	tags, err := domain.ParseLocationTags(in.LocationTypes)
	if err != nil {
		return Asset{}, err
	}
	asset, err := a.service.AddAsset(ctx, domain.AssetInput{
		Name:          in.Name,
		Description:   in.Description,
		ImageURLs:     in.ImageURLs,
		LocationTypes: tags,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("add asset: %w", err)
	}
	return mapAsset(asset), nil
}

// UpdateAsset applies a partial update.
func (a *AppServiceAdapter) UpdateAsset(ctx context.Context, id string, in AssetPatchRequest) (Asset, error) {
	patch := domain.AssetPatch{
		Name:        in.Name,
		Description: in.Description,
		ImageURLs:   in.ImageURLs,
	}
	if in.LocationTypes != nil {
		tags, err := domain.ParseLocationTags(*in.LocationTypes)
		if err != nil {
			return Asset{}, err
		}
		patch.LocationTypes = &tags
	}
	asset, err := a.service.UpdateAsset(ctx, id, patch)
	if err != nil {
		return Asset{}, fmt.Errorf("update asset: %w", err)
	}
	return mapAsset(asset), nil
}

// DeleteAsset removes an asset.
func (a *AppServiceAdapter) DeleteAsset(ctx context.Context, id string) error {
	if err := a.service.DeleteAsset(ctx, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}

// MoveAsset swaps an asset with its neighbour in display order.
func (a *AppServiceAdapter) MoveAsset(ctx context.Context, id, direction string) (MoveResult, error) {
	d, err := domain.ParseDirection(direction)
	if err != nil {
		return MoveResult{}, err
	}
	moved, err := a.service.MoveAsset(ctx, id, d)
	if err != nil {
		return MoveResult{}, fmt.Errorf("move asset: %w", err)
	}
	return MoveResult{Moved: moved}, nil
}

// ListContracts lists contracts by name.
func (a *AppServiceAdapter) ListContracts(ctx context.Context) ([]Contract, error) {
	contracts, err := a.service.ListContracts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	out := make([]Contract, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, mapContract(c))
	}
	return out, nil
}

// GetContract returns one contract.
func (a *AppServiceAdapter) GetContract(ctx context.Context, id string) (Contract, error) {
	c, err := a.service.GetContract(ctx, id)
	if err != nil {
		return Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return mapContract(c), nil
}

// AddContract registers a new contract.
func (a *AppServiceAdapter) AddContract(ctx context.Context, in ContractRequest) (Contract, error) {
	c, err := a.service.AddContract(ctx, domain.ContractInput{
		Name:        in.Name,
		Responsible: in.Responsible,
		Summary:     in.Summary,
		LogoURL:     in.LogoURL,
	})
	if err != nil {
		return Contract{}, fmt.Errorf("add contract: %w", err)
	}
	return mapContract(c), nil
}

// UpdateContract applies a partial update.
func (a *AppServiceAdapter) UpdateContract(ctx context.Context, id string, in ContractPatchRequest) (Contract, error) {
	c, err := a.service.UpdateContract(ctx, id, domain.ContractPatch{
		Name:        in.Name,
		Responsible: in.Responsible,
		Summary:     in.Summary,
		LogoURL:     in.LogoURL,
	})
	if err != nil {
		return Contract{}, fmt.Errorf("update contract: %w", err)
	}
	return mapContract(c), nil
}

// DeleteContract removes a contract.
func (a *AppServiceAdapter) DeleteContract(ctx context.Context, id string) error {
	if err := a.service.DeleteContract(ctx, id); err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	return nil
}

// ListRecords lists records, optionally for one asset.
func (a *AppServiceAdapter) ListRecords(ctx context.Context, assetID string) ([]Record, error) {
	records, err := a.service.ListRecords(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, mapRecord(r))
	}
	return out, nil
}

// GetRecord returns one record.
func (a *AppServiceAdapter) GetRecord(ctx context.Context, id string) (Record, error) {
	r, err := a.service.GetRecord(ctx, id)
	if err != nil {
		return Record{}, fmt.Errorf("get record: %w", err)
	}
	return mapRecord(r), nil
}

// SetApplies toggles one combination.
func (a *AppServiceAdapter) SetApplies(ctx context.Context, in SetAppliesRequest) (AppliesResult, error) {
	r, created, err := a.service.SetApplies(ctx, app.SetAppliesInput{
		AssetTypeID:  in.AssetTypeID,
		Category:     in.Category,
		ActivityName: in.ActivityName,
		Applies:      in.Applies,
	})
	if err != nil {
		return AppliesResult{}, fmt.Errorf("set applies: %w", err)
	}
	if r.ID == "" {
		return AppliesResult{}, nil
	}
	mapped := mapRecord(r)
	return AppliesResult{Record: &mapped, Created: created}, nil
}

// UpdateField sets one proposal field.
func (a *AppServiceAdapter) UpdateField(ctx context.Context, in UpdateFieldRequest) (Record, error) {
	field, err := domain.ParseField(in.Field)
	if err != nil {
		return Record{}, err
	}
	r, err := a.service.UpdateField(ctx, in.RecordID, field, in.Value)
	if err != nil {
		return Record{}, fmt.Errorf("update field: %w", err)
	}
	return mapRecord(r), nil
}

// SetValidation records a reviewer decision.
func (a *AppServiceAdapter) SetValidation(ctx context.Context, in SetValidationRequest) (Record, error) {
	if strings.TrimSpace(in.Status) == "" {
		return Record{}, domain.ValidationInputError{Field: "status"}
	}
	status, err := domain.ParseValidationStatus(in.Status)
	if err != nil {
		return Record{}, err
	}
	r, err := a.service.SetValidation(ctx, in.RecordID, status, in.Comment, in.ValidatedBy)
	if err != nil {
		return Record{}, fmt.Errorf("set validation: %w", err)
	}
	return mapRecord(r), nil
}

// ResolveAsset returns the display sequence of one asset.
func (a *AppServiceAdapter) ResolveAsset(ctx context.Context, id string) ([]ResolvedActivity, error) {
	items, err := a.service.ResolveAsset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve asset: %w", err)
	}
	out := make([]ResolvedActivity, 0, len(items))
	for _, item := range items {
		out = append(out, ResolvedActivity{Record: mapRecord(item.Record), IsDependent: item.IsDependent, Depth: item.Depth})
	}
	return out, nil
}

// ContractView builds one contract view, with its markdown report when requested.
func (a *AppServiceAdapter) ContractView(ctx context.Context, id string, withMarkdown bool) (ContractView, error) {
	view, err := a.service.ContractView(ctx, id)
	if err != nil {
		return ContractView{}, fmt.Errorf("contract view: %w", err)
	}
	out := ContractView{Contract: mapContract(view.Contract), Sections: view.Sections}
	if withMarkdown {
		out.Markdown = coverage.ContractMarkdown(view)
	}
	return out, nil
}

// Pivot builds the cross-asset summary.
func (a *AppServiceAdapter) Pivot(ctx context.Context, category string) (coverage.Pivot, error) {
	pivot, err := a.service.Pivot(ctx, coverage.PivotOptions{Category: category})
	if err != nil {
		return coverage.Pivot{}, fmt.Errorf("pivot: %w", err)
	}
	return pivot, nil
}

// DraftAssetDescription drafts an asset description.
func (a *AppServiceAdapter) DraftAssetDescription(ctx context.Context, in DraftAssetRequest) (Draft, error) {
	tags, err := domain.ParseLocationTags(in.LocationTypes)
	if err != nil {
		return Draft{}, err
	}
	text, err := a.service.DraftAssetDescription(ctx, in.Name, tags)
	if err != nil {
		return Draft{}, fmt.Errorf("draft asset description: %w", err)
	}
	return Draft{Text: text}, nil
}

// DraftActivityAnalysis drafts a comment for one record.
func (a *AppServiceAdapter) DraftActivityAnalysis(ctx context.Context, recordID string) (Draft, error) {
	text, err := a.service.DraftActivityAnalysis(ctx, recordID)
	if err != nil {
		return Draft{}, fmt.Errorf("draft activity analysis: %w", err)
	}
	return Draft{Text: text}, nil
}

// mapTaxonomy copies the catalog with non-nil collections.
func mapTaxonomy(tax domain.Taxonomy, frequencies []string) Taxonomy {
	activities := make(map[string][]string, len(tax.Categories))
	for _, category := range tax.Categories {
		activities[category] = nonNil(tax.Activities[category])
	}
	return Taxonomy{
		Categories:  nonNil(tax.Categories),
		Activities:  activities,
		Frequencies: nonNil(frequencies),
	}
}

// mapAssets maps a list of assets.
func mapAssets(assets []domain.AssetType) []Asset {
	out := make([]Asset, 0, len(assets))
	for _, asset := range assets {
		out = append(out, mapAsset(asset))
	}
	return out
}

// mapAsset maps one asset.
func mapAsset(a domain.AssetType) Asset {
	tags := make([]string, 0, len(a.LocationTypes))
	for _, tag := range a.LocationTypes {
		tags = append(tags, string(tag))
	}
	return Asset{
		ID:            a.ID,
		Name:          a.Name,
		Description:   a.Description,
		ImageURLs:     nonNil(a.ImageURLs),
		LocationTypes: tags,
		Order:         a.Order,
	}
}

// mapContract maps one contract.
func mapContract(c domain.Contract) Contract {
	return Contract{
		ID:          c.ID,
		Name:        c.Name,
		Responsible: c.Responsible,
		Summary:     c.Summary,
		LogoURL:     c.LogoURL,
	}
}

// mapRecord maps one activity record.
func mapRecord(r domain.ActivityRecord) Record {
	return Record{
		ID:                  r.ID,
		AssetTypeID:         r.AssetTypeID,
		Category:            r.Category,
		ActivityName:        r.ActivityName,
		Applies:             r.Applies,
		Status:              string(r.Status),
		StatusLabel:         r.Status.Label(),
		Comment:             r.Comment,
		Frequency:           r.Frequency,
		InvolvedContracts:   nonNil(r.InvolvedContracts),
		DependentActivities: nonNil(r.DependentActivities),
		ValidationStatus:    string(r.ValidationStatus),
		ValidatorComment:    r.ValidatorComment,
		ValidatedBy:         r.ValidatedBy,
		LastUpdatedBy:       r.LastUpdatedBy,
		Timestamp:           r.Timestamp,
	}
}

// nonNil clones values and keeps JSON output as [] when empty.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}
