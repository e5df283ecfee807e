package app

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/hylla/sudsboard/internal/domain"
)

// AddAsset appends a new asset type after every existing one.
func (s *Service) AddAsset(ctx context.Context, in domain.AssetInput) (domain.AssetType, error) {
	assets, err := s.ListAssets(ctx)
	if err != nil {
		return domain.AssetType{}, err
	}
	asset, err := domain.NewAssetType("", in, nextAssetOrder(assets))
	if err != nil {
		return domain.AssetType{}, err
	}
	id, err := s.store.Add(ctx, CollectionAssetTypes, assetFields(asset))
	if err != nil {
		return domain.AssetType{}, storeErr("add asset", err)
	}
	asset.ID = id
	s.logger.Info("asset added", "asset_id", id, "order", asset.Order)
	return asset, nil
}

// UpdateAsset merges patch into one asset type and writes only the patched fields.
func (s *Service) UpdateAsset(ctx context.Context, id string, patch domain.AssetPatch) (domain.AssetType, error) {
	asset, err := s.GetAsset(ctx, id)
	if err != nil {
		return domain.AssetType{}, err
	}
	if err := asset.Apply(patch); err != nil {
		return domain.AssetType{}, err
	}
	fields := assetPatchFields(asset, patch)
	if len(fields) == 0 {
		return asset, nil
	}
	if err := s.store.Update(ctx, CollectionAssetTypes, asset.ID, fields); err != nil {
		return domain.AssetType{}, storeErr("update asset", notFoundAs(err, domain.KindAssetType, asset.ID))
	}
	return asset, nil
}

// DeleteAsset hard-deletes one asset type. Its activity records stay in storage.
func (s *Service) DeleteAsset(ctx context.Context, id string) error {
	asset, err := s.GetAsset(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, CollectionAssetTypes, asset.ID); err != nil {
		return storeErr("delete asset", notFoundAs(err, domain.KindAssetType, asset.ID))
	}
	s.logger.Info("asset deleted", "asset_id", asset.ID)
	return nil
}

// GetAsset returns one asset type.
func (s *Service) GetAsset(ctx context.Context, id string) (domain.AssetType, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.AssetType{}, domain.ValidationInputError{Field: "asset_type_id"}
	}
	doc, err := s.store.Get(ctx, CollectionAssetTypes, id)
	if err != nil {
		return domain.AssetType{}, storeErr("get asset", notFoundAs(err, domain.KindAssetType, id))
	}
	stored, err := decodeAsset(doc)
	if err != nil {
		return domain.AssetType{}, storeErr("decode asset", err)
	}
	return stored.asset, nil
}

// ListAssets returns asset types sorted by order, keeping those that carry any of tags.
// Assets stored without an order get their snapshot index, and that repair is persisted.
func (s *Service) ListAssets(ctx context.Context, tags ...domain.LocationTag) ([]domain.AssetType, error) {
	docs, err := s.store.Query(ctx, CollectionAssetTypes)
	if err != nil {
		return nil, storeErr("list assets", err)
	}
	assets, healed, err := orderAssets(docs)
	if err != nil {
		return nil, storeErr("decode assets", err)
	}
	if len(healed) > 0 {
		batch := s.store.Batch()
		for _, asset := range healed {
			batch.Update(CollectionAssetTypes, asset.ID, Fields{"order": asset.Order})
		}
		if err := batch.Commit(ctx); err != nil {
			return nil, storeErr("repair asset order", err)
		}
		s.logger.Info("asset order repaired", "assets", len(healed))
	}
	if len(tags) == 0 {
		return assets, nil
	}
	out := make([]domain.AssetType, 0, len(assets))
	for _, asset := range assets {
		if asset.HasAnyLocation(tags) {
			out = append(out, asset)
		}
	}
	return out, nil
}

// MoveAsset swaps the order values of an asset type and its neighbor.
func (s *Service) MoveAsset(ctx context.Context, id string, d domain.Direction) (bool, error) {
	id = strings.TrimSpace(id)
	assets, err := s.ListAssets(ctx)
	if err != nil {
		return false, err
	}
	_, from, to, moved := domain.MoveFunc(assets, func(a domain.AssetType) bool { return a.ID == id }, d)
	if from < 0 {
		return false, domain.NotFoundError{Kind: domain.KindAssetType, Key: id}
	}
	if !moved {
		return false, nil
	}
	fromOrder, toOrder := assets[to].Order, assets[from].Order
	if fromOrder == toOrder {
		fromOrder, toOrder = to, from
	}
	batch := s.store.Batch()
	batch.Update(CollectionAssetTypes, assets[from].ID, Fields{"order": fromOrder})
	batch.Update(CollectionAssetTypes, assets[to].ID, Fields{"order": toOrder})
	if err := batch.Commit(ctx); err != nil {
		return false, storeErr("move asset", err)
	}
	return true, nil
}

// orderAssets decodes and sorts asset documents. It returns the assets whose order was assigned here.
func orderAssets(docs []Document) ([]domain.AssetType, []domain.AssetType, error) {
	assets := make([]domain.AssetType, 0, len(docs))
	var healed []domain.AssetType
	for idx, doc := range docs {
		stored, err := decodeAsset(doc)
		if err != nil {
			return nil, nil, err
		}
		if !stored.hasOrder {
			stored.asset.Order = idx
			healed = append(healed, stored.asset)
		}
		assets = append(assets, stored.asset)
	}
	slices.SortStableFunc(assets, func(a, b domain.AssetType) int {
		return a.Order - b.Order
	})
	return assets, healed, nil
}

// nextAssetOrder returns an order after every existing asset.
func nextAssetOrder(assets []domain.AssetType) int {
	next := len(assets)
	for _, a := range assets {
		if a.Order >= next {
			next = a.Order + 1
		}
	}
	return next
}

// AddContract registers a contract. Names must be unique since records reference them by name.
func (s *Service) AddContract(ctx context.Context, in domain.ContractInput) (domain.Contract, error) {
	contract, err := domain.NewContract("", in)
	if err != nil {
		return domain.Contract{}, err
	}
	if err := s.ensureContractNameFree(ctx, contract.Name, ""); err != nil {
		return domain.Contract{}, err
	}
	id, err := s.store.Add(ctx, CollectionContracts, contractFields(contract))
	if err != nil {
		return domain.Contract{}, storeErr("add contract", err)
	}
	contract.ID = id
	s.logger.Info("contract added", "contract_id", id, "name", contract.Name)
	return contract, nil
}

// UpdateContract merges patch into one contract. Renames do not touch activity records.
func (s *Service) UpdateContract(ctx context.Context, id string, patch domain.ContractPatch) (domain.Contract, error) {
	contract, err := s.GetContract(ctx, id)
	if err != nil {
		return domain.Contract{}, err
	}
	if err := contract.Apply(patch); err != nil {
		return domain.Contract{}, err
	}
	if patch.Name != nil {
		if err := s.ensureContractNameFree(ctx, contract.Name, contract.ID); err != nil {
			return domain.Contract{}, err
		}
	}
	if err := s.store.Update(ctx, CollectionContracts, contract.ID, contractFields(contract)); err != nil {
		return domain.Contract{}, storeErr("update contract", notFoundAs(err, domain.KindContract, contract.ID))
	}
	return contract, nil
}

// DeleteContract removes one contract. Records keep naming it.
func (s *Service) DeleteContract(ctx context.Context, id string) error {
	contract, err := s.GetContract(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, CollectionContracts, contract.ID); err != nil {
		return storeErr("delete contract", notFoundAs(err, domain.KindContract, contract.ID))
	}
	s.logger.Info("contract deleted", "contract_id", contract.ID, "name", contract.Name)
	return nil
}

// GetContract returns one contract.
func (s *Service) GetContract(ctx context.Context, id string) (domain.Contract, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Contract{}, domain.ValidationInputError{Field: "contract_id"}
	}
	doc, err := s.store.Get(ctx, CollectionContracts, id)
	if err != nil {
		return domain.Contract{}, storeErr("get contract", notFoundAs(err, domain.KindContract, id))
	}
	contract, err := decodeContract(doc)
	if err != nil {
		return domain.Contract{}, storeErr("decode contract", err)
	}
	return contract, nil
}

// ListContracts returns every contract sorted by name.
func (s *Service) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	docs, err := s.store.Query(ctx, CollectionContracts)
	if err != nil {
		return nil, storeErr("list contracts", err)
	}
	return decodeContracts(docs)
}

// ensureContractNameFree rejects a name already used by another contract.
func (s *Service) ensureContractNameFree(ctx context.Context, name, selfID string) error {
	docs, err := s.store.Query(ctx, CollectionContracts, Eq("name", name))
	if err != nil {
		return storeErr("query contracts", err)
	}
	for _, doc := range docs {
		if doc.ID != selfID {
			return domain.DuplicateError{Kind: domain.KindContract, Name: name}
		}
	}
	return nil
}

// decodeContracts decodes and sorts contract documents by name.
func decodeContracts(docs []Document) ([]domain.Contract, error) {
	out := make([]domain.Contract, 0, len(docs))
	for _, doc := range docs {
		contract, err := decodeContract(doc)
		if err != nil {
			return nil, storeErr("decode contract", err)
		}
		out = append(out, contract)
	}
	slices.SortStableFunc(out, func(a, b domain.Contract) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// notFoundAs replaces a bare not-found error with a typed one naming kind and key.
func notFoundAs(err error, kind, key string) error {
	var typed domain.NotFoundError
	if errors.As(err, &typed) && typed.Kind != domain.KindDocument {
		return err
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFoundError{Kind: kind, Key: key}
	}
	return err
}
