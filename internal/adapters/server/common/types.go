// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"time"

	"github.com/hylla/sudsboard/internal/coverage"
)

// Taxonomy is the ordered category and activity-name catalog.
type Taxonomy struct {
	Categories  []string            `json:"categories"`
	Activities  map[string][]string `json:"activities"`
	Frequencies []string            `json:"frequencies"`
}

// Asset is one SUDS asset type.
type Asset struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	ImageURLs     []string `json:"image_urls"`
	LocationTypes []string `json:"location_types"`
	Order         int      `json:"order"`
}

// Contract is one maintenance contract.
type Contract struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Responsible string `json:"responsible"`
	Summary     string `json:"summary"`
	LogoURL     string `json:"logo_url"`
}

// Record is one activity record.
type Record struct {
	ID                  string    `json:"id"`
	AssetTypeID         string    `json:"asset_type_id"`
	Category            string    `json:"category"`
	ActivityName        string    `json:"activity_name"`
	Applies             bool      `json:"applies"`
	Status              string    `json:"status"`
	StatusLabel         string    `json:"status_label"`
	Comment             string    `json:"comment"`
	Frequency           string    `json:"frequency"`
	InvolvedContracts   []string  `json:"involved_contracts"`
	DependentActivities []string  `json:"dependent_activities"`
	ValidationStatus    string    `json:"validation_status"`
	ValidatorComment    string    `json:"validator_comment"`
	ValidatedBy         string    `json:"validated_by"`
	LastUpdatedBy       string    `json:"last_updated_by"`
	Timestamp           time.Time `json:"timestamp"`
}

// ResolvedActivity is one entry of an asset's display sequence.
type ResolvedActivity struct {
	Record      Record `json:"record"`
	IsDependent bool   `json:"is_dependent"`
	Depth       int    `json:"depth"`
}

// ContractView lists the activities of one contract grouped by asset.
type ContractView struct {
	Contract Contract                   `json:"contract"`
	Sections []coverage.ContractSection `json:"sections"`
	Markdown string                     `json:"markdown,omitempty"`
}

// CascadeResult reports a taxonomy change and the number of records it removed.
type CascadeResult struct {
	Name           string `json:"name"`
	RemovedRecords int    `json:"removed_records"`
}

// MoveResult reports whether a reorder changed anything.
type MoveResult struct {
	Moved bool `json:"moved"`
}

// AppliesResult reports the outcome of an applies toggle.
type AppliesResult struct {
	Record  *Record `json:"record,omitempty"`
	Created bool    `json:"created"`
}

// Draft is generated text for a form field.
type Draft struct {
	Text string `json:"text"`
}

// AssetRequest carries the fields of a new asset.
type AssetRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	ImageURLs     []string `json:"image_urls,omitempty"`
	LocationTypes []string `json:"location_types,omitempty"`
}

// AssetPatchRequest carries optional asset updates.
type AssetPatchRequest struct {
	Name          *string   `json:"name,omitempty"`
	Description   *string   `json:"description,omitempty"`
	ImageURLs     *[]string `json:"image_urls,omitempty"`
	LocationTypes *[]string `json:"location_types,omitempty"`
}

// ContractRequest carries the fields of a new contract.
type ContractRequest struct {
	Name        string `json:"name"`
	Responsible string `json:"responsible,omitempty"`
	Summary     string `json:"summary,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
}

// ContractPatchRequest carries optional contract updates.
type ContractPatchRequest struct {
	Name        *string `json:"name,omitempty"`
	Responsible *string `json:"responsible,omitempty"`
	Summary     *string `json:"summary,omitempty"`
	LogoURL     *string `json:"logo_url,omitempty"`
}

// SetAppliesRequest toggles one (asset, category, activity) combination.
type SetAppliesRequest struct {
	AssetTypeID  string `json:"asset_type_id"`
	Category     string `json:"category"`
	ActivityName string `json:"activity_name"`
	Applies      bool   `json:"applies"`
}

// UpdateFieldRequest sets one proposal field of a record.
type UpdateFieldRequest struct {
	RecordID string `json:"record_id"`
	Field    string `json:"field"`
	Value    any    `json:"value"`
}

// SetValidationRequest records a reviewer decision.
type SetValidationRequest struct {
	RecordID    string `json:"record_id"`
	Status      string `json:"status"`
	Comment     string `json:"comment,omitempty"`
	ValidatedBy string `json:"validated_by,omitempty"`
}

// DraftAssetRequest asks for an asset description.
type DraftAssetRequest struct {
	Name          string   `json:"name"`
	LocationTypes []string `json:"location_types,omitempty"`
}

// TaxonomyService exposes category and activity-name operations.
type TaxonomyService interface {
	Taxonomy(context.Context) (Taxonomy, error)
	AddCategory(context.Context, string) (string, error)
	DeleteCategory(context.Context, string) (CascadeResult, error)
	MoveCategory(context.Context, string, string) (MoveResult, error)
	AddActivityName(context.Context, string, string) (string, error)
	DeleteActivityName(context.Context, string, string) (CascadeResult, error)
	RenameActivityName(context.Context, string, string, string) (string, error)
	MoveActivityName(context.Context, string, string, string) (MoveResult, error)
}

// AssetService exposes asset registry operations.
type AssetService interface {
	ListAssets(context.Context, []string) ([]Asset, error)
	GetAsset(context.Context, string) (Asset, error)
	AddAsset(context.Context, AssetRequest) (Asset, error)
	UpdateAsset(context.Context, string, AssetPatchRequest) (Asset, error)
	DeleteAsset(context.Context, string) error
	MoveAsset(context.Context, string, string) (MoveResult, error)
}

// ContractService exposes contract registry operations.
type ContractService interface {
	ListContracts(context.Context) ([]Contract, error)
	GetContract(context.Context, string) (Contract, error)
	AddContract(context.Context, ContractRequest) (Contract, error)
	UpdateContract(context.Context, string, ContractPatchRequest) (Contract, error)
	DeleteContract(context.Context, string) error
}

// RecordService exposes activity record operations.
type RecordService interface {
	ListRecords(context.Context, string) ([]Record, error)
	GetRecord(context.Context, string) (Record, error)
	SetApplies(context.Context, SetAppliesRequest) (AppliesResult, error)
	UpdateField(context.Context, UpdateFieldRequest) (Record, error)
	SetValidation(context.Context, SetValidationRequest) (Record, error)
}

// ViewService exposes the derived views.
type ViewService interface {
	ResolveAsset(context.Context, string) ([]ResolvedActivity, error)
	ContractView(context.Context, string, bool) (ContractView, error)
	Pivot(context.Context, string) (coverage.Pivot, error)
}

// DraftService exposes text drafting.
type DraftService interface {
	DraftAssetDescription(context.Context, DraftAssetRequest) (Draft, error)
	DraftActivityAnalysis(context.Context, string) (Draft, error)
}

// Service is the full surface shared by HTTP and MCP transports.
type Service interface {
	TaxonomyService
	AssetService
	ContractService
	RecordService
	ViewService
	DraftService
}
