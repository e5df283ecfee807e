package app

import (
	"context"

	"github.com/hylla/sudsboard/internal/coverage"
	"github.com/hylla/sudsboard/internal/domain"
)

// Dataset reads one snapshot of taxonomy, assets, contracts, and records.
func (s *Service) Dataset(ctx context.Context) (coverage.Dataset, error) {
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return coverage.Dataset{}, err
	}
	assets, err := s.ListAssets(ctx)
	if err != nil {
		return coverage.Dataset{}, err
	}
	contracts, err := s.ListContracts(ctx)
	if err != nil {
		return coverage.Dataset{}, err
	}
	records, err := s.ListRecords(ctx, "")
	if err != nil {
		return coverage.Dataset{}, err
	}
	return coverage.Dataset{Taxonomy: tax, Assets: assets, Contracts: contracts, Records: records}, nil
}

// ResolveAsset returns the display sequence of one asset's applicable activities.
func (s *Service) ResolveAsset(ctx context.Context, assetID string) ([]coverage.ResolvedActivity, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	tax, err := s.loadTaxonomy(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.ListRecords(ctx, asset.ID)
	if err != nil {
		return nil, err
	}
	return resolvedOrEmpty(coverage.Resolve(asset.ID, records, tax)), nil
}

// ContractView lists, per asset, the resolved activities that involve one contract.
func (s *Service) ContractView(ctx context.Context, contractID string) (coverage.ContractView, error) {
	contract, err := s.GetContract(ctx, contractID)
	if err != nil {
		return coverage.ContractView{}, err
	}
	ds, err := s.Dataset(ctx)
	if err != nil {
		return coverage.ContractView{}, err
	}
	return coverage.BuildContractView(ds, contract), nil
}

// Pivot builds the cross-asset summary.
func (s *Service) Pivot(ctx context.Context, opts coverage.PivotOptions) (coverage.Pivot, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return coverage.Pivot{}, err
	}
	return coverage.BuildPivot(ds, opts), nil
}

// resolvedOrEmpty keeps JSON output as [] for assets without applicable activities.
func resolvedOrEmpty(items []coverage.ResolvedActivity) []coverage.ResolvedActivity {
	if items == nil {
		return []coverage.ResolvedActivity{}
	}
	return items
}

// contractByID finds a contract inside a dataset or reports it missing.
func contractByID(ds coverage.Dataset, id string) (domain.Contract, error) {
	contract, ok := ds.Contract(id)
	if !ok {
		return domain.Contract{}, domain.NotFoundError{Kind: domain.KindContract, Key: id}
	}
	return contract, nil
}
