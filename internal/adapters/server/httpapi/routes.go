package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/hylla/sudsboard/internal/adapters/server/common"
	"github.com/hylla/sudsboard/internal/coverage"
)

// output wraps one response body.
type output[T any] struct {
	Body T
}

// reply builds one response.
func reply[T any](body T) *output[T] {
	return &output[T]{Body: body}
}

// idPath captures one path id.
type idPath struct {
	ID string `path:"id"`
}

// nameBody carries one name.
type nameBody struct {
	Name string `json:"name" minLength:"1"`
}

// moveBody carries one reorder request.
type moveBody struct {
	Direction string `json:"direction" enum:"up,down,left,right"`
}

// registerTaxonomy registers category and activity-name operations.
func registerTaxonomy(api huma.API, svc common.TaxonomyService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-taxonomy",
		Method:      http.MethodGet,
		Path:        "/taxonomy",
		Summary:     "Get categories, activity names, and frequencies",
		Tags:        []string{"taxonomy"},
	}, func(ctx context.Context, _ *struct{}) (*output[common.Taxonomy], error) {
		tax, err := svc.Taxonomy(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(tax), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-category",
		Method:        http.MethodPost,
		Path:          "/taxonomy/categories",
		Summary:       "Append a category",
		Tags:          []string{"taxonomy"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body nameBody
	}) (*output[nameBody], error) {
		name, err := svc.AddCategory(ctx, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(nameBody{Name: name}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-category",
		Method:      http.MethodDelete,
		Path:        "/taxonomy/categories",
		Summary:     "Delete a category with its activity names and records",
		Tags:        []string{"taxonomy"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Name string `query:"name" required:"true"`
	}) (*output[common.CascadeResult], error) {
		out, err := svc.DeleteCategory(ctx, input.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(out), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-category",
		Method:      http.MethodPost,
		Path:        "/taxonomy/categories/move",
		Summary:     "Swap a category with its neighbour",
		Tags:        []string{"taxonomy"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body struct {
			Name      string `json:"name"`
			Direction string `json:"direction" enum:"up,down,left,right"`
		}
	}) (*output[common.MoveResult], error) {
		out, err := svc.MoveCategory(ctx, input.Body.Name, input.Body.Direction)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(out), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-activity-name",
		Method:        http.MethodPost,
		Path:          "/taxonomy/activities",
		Summary:       "Append an activity name to a category",
		Tags:          []string{"taxonomy"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body struct {
			Category string `json:"category"`
			Name     string `json:"name"`
		}
	}) (*output[nameBody], error) {
		name, err := svc.AddActivityName(ctx, input.Body.Category, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(nameBody{Name: name}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-activity-name",
		Method:      http.MethodDelete,
		Path:        "/taxonomy/activities",
		Summary:     "Delete an activity name and its records",
		Tags:        []string{"taxonomy"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Category string `query:"category" required:"true"`
		Name     string `query:"name" required:"true"`
	}) (*output[common.CascadeResult], error) {
		out, err := svc.DeleteActivityName(ctx, input.Category, input.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(out), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-activity-name",
		Method:      http.MethodPost,
		Path:        "/taxonomy/activities/rename",
		Summary:     "Rename an activity name and rewrite its records",
		Tags:        []string{"taxonomy"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body struct {
			Category string `json:"category"`
			OldName  string `json:"old_name"`
			NewName  string `json:"new_name"`
		}
	}) (*output[nameBody], error) {
		name, err := svc.RenameActivityName(ctx, input.Body.Category, input.Body.OldName, input.Body.NewName)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(nameBody{Name: name}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-activity-name",
		Method:      http.MethodPost,
		Path:        "/taxonomy/activities/move",
		Summary:     "Swap an activity name with its neighbour",
		Tags:        []string{"taxonomy"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body struct {
			Category  string `json:"category"`
			Name      string `json:"name"`
			Direction string `json:"direction" enum:"up,down,left,right"`
		}
	}) (*output[common.MoveResult], error) {
		out, err := svc.MoveActivityName(ctx, input.Body.Category, input.Body.Name, input.Body.Direction)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(out), nil
	})
}

// registerAssets registers asset registry operations.
func registerAssets(api huma.API, svc common.AssetService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-assets",
		Method:      http.MethodGet,
		Path:        "/assets",
		Summary:     "List assets in display order",
		Tags:        []string{"assets"},
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Location string `query:"location" doc:"Comma-separated location tags; an asset matches any of them"`
	}) (*output[[]common.Asset], error) {
		assets, err := svc.ListAssets(ctx, splitList(input.Location))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(assets), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-asset",
		Method:        http.MethodPost,
		Path:          "/assets",
		Summary:       "Register an asset",
		Tags:          []string{"assets"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body common.AssetRequest
	}) (*output[common.Asset], error) {
		asset, err := svc.AddAsset(ctx, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(asset), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-asset",
		Method:      http.MethodGet,
		Path:        "/assets/{id}",
		Summary:     "Get an asset",
		Tags:        []string{"assets"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*output[common.Asset], error) {
		asset, err := svc.GetAsset(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(asset), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-asset",
		Method:      http.MethodPatch,
		Path:        "/assets/{id}",
		Summary:     "Update asset fields",
		Tags:        []string{"assets"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body common.AssetPatchRequest
	}) (*output[common.Asset], error) {
		asset, err := svc.UpdateAsset(ctx, input.ID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(asset), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-asset",
		Method:        http.MethodDelete,
		Path:          "/assets/{id}",
		Summary:       "Delete an asset",
		Tags:          []string{"assets"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := svc.DeleteAsset(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-asset",
		Method:      http.MethodPost,
		Path:        "/assets/{id}/move",
		Summary:     "Swap an asset with its neighbour in display order",
		Tags:        []string{"assets"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body moveBody
	}) (*output[common.MoveResult], error) {
		out, err := svc.MoveAsset(ctx, input.ID, input.Body.Direction)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(out), nil
	})
}

// registerContracts registers contract registry operations.
func registerContracts(api huma.API, svc common.ContractService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-contracts",
		Method:      http.MethodGet,
		Path:        "/contracts",
		Summary:     "List contracts by name",
		Tags:        []string{"contracts"},
	}, func(ctx context.Context, _ *struct{}) (*output[[]common.Contract], error) {
		contracts, err := svc.ListContracts(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(contracts), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-contract",
		Method:        http.MethodPost,
		Path:          "/contracts",
		Summary:       "Register a contract",
		Tags:          []string{"contracts"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body common.ContractRequest
	}) (*output[common.Contract], error) {
		c, err := svc.AddContract(ctx, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-contract",
		Method:      http.MethodGet,
		Path:        "/contracts/{id}",
		Summary:     "Get a contract",
		Tags:        []string{"contracts"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*output[common.Contract], error) {
		c, err := svc.GetContract(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-contract",
		Method:      http.MethodPatch,
		Path:        "/contracts/{id}",
		Summary:     "Update contract fields",
		Tags:        []string{"contracts"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body common.ContractPatchRequest
	}) (*output[common.Contract], error) {
		c, err := svc.UpdateContract(ctx, input.ID, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-contract",
		Method:        http.MethodDelete,
		Path:          "/contracts/{id}",
		Summary:       "Delete a contract",
		Tags:          []string{"contracts"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := svc.DeleteContract(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

// registerRecords registers activity record operations.
func registerRecords(api huma.API, svc common.RecordService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-records",
		Method:      http.MethodGet,
		Path:        "/records",
		Summary:     "List activity records",
		Tags:        []string{"records"},
	}, func(ctx context.Context, input *struct {
		AssetID string `query:"asset_id"`
	}) (*output[[]common.Record], error) {
		records, err := svc.ListRecords(ctx, input.AssetID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(records), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-record",
		Method:      http.MethodGet,
		Path:        "/records/{id}",
		Summary:     "Get an activity record",
		Tags:        []string{"records"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*output[common.Record], error) {
		r, err := svc.GetRecord(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(r), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-applies",
		Method:      http.MethodPut,
		Path:        "/records/applies",
		Summary:     "Toggle whether an activity applies to an asset",
		Tags:        []string{"records"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body common.SetAppliesRequest
	}) (*output[common.AppliesResult], error) {
		out, err := svc.SetApplies(ctx, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(out), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-record-field",
		Method:      http.MethodPatch,
		Path:        "/records/{id}/fields",
		Summary:     "Set one proposal field; validation resets to pending",
		Tags:        []string{"records"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body struct {
			Field string `json:"field"`
			Value any    `json:"value,omitempty"`
		}
	}) (*output[common.Record], error) {
		r, err := svc.UpdateField(ctx, common.UpdateFieldRequest{RecordID: input.ID, Field: input.Body.Field, Value: input.Body.Value})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(r), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-record-validation",
		Method:      http.MethodPut,
		Path:        "/records/{id}/validation",
		Summary:     "Record a reviewer decision",
		Tags:        []string{"records"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body struct {
			Status      string `json:"status"`
			Comment     string `json:"comment,omitempty"`
			ValidatedBy string `json:"validated_by,omitempty"`
		}
	}) (*output[common.Record], error) {
		r, err := svc.SetValidation(ctx, common.SetValidationRequest{
			RecordID:    input.ID,
			Status:      input.Body.Status,
			Comment:     input.Body.Comment,
			ValidatedBy: input.Body.ValidatedBy,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(r), nil
	})
}

// registerViews registers the derived views.
func registerViews(api huma.API, svc common.ViewService) {
	huma.Register(api, huma.Operation{
		OperationID: "resolve-asset",
		Method:      http.MethodGet,
		Path:        "/assets/{id}/activities",
		Summary:     "Resolved activity sequence of one asset",
		Tags:        []string{"views"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*output[[]common.ResolvedActivity], error) {
		items, err := svc.ResolveAsset(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(items), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "contract-view",
		Method:      http.MethodGet,
		Path:        "/contracts/{id}/view",
		Summary:     "Activities of one contract grouped by asset",
		Tags:        []string{"views"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID       string `path:"id"`
		Markdown bool   `query:"markdown" doc:"Include the markdown report"`
	}) (*output[common.ContractView], error) {
		view, err := svc.ContractView(ctx, input.ID, input.Markdown)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(view), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pivot",
		Method:      http.MethodGet,
		Path:        "/pivot",
		Summary:     "Cross-asset status and validation summary",
		Tags:        []string{"views"},
	}, func(ctx context.Context, input *struct {
		Category string `query:"category"`
	}) (*output[coverage.Pivot], error) {
		pivot, err := svc.Pivot(ctx, input.Category)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(pivot), nil
	})
}

// registerDrafts registers text drafting operations.
func registerDrafts(api huma.API, svc common.DraftService) {
	huma.Register(api, huma.Operation{
		OperationID: "draft-asset-description",
		Method:      http.MethodPost,
		Path:        "/drafts/asset-description",
		Summary:     "Draft an asset description",
		Tags:        []string{"drafts"},
		Errors:      []int{http.StatusBadRequest, http.StatusBadGateway, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *struct {
		Body common.DraftAssetRequest
	}) (*output[common.Draft], error) {
		draft, err := svc.DraftAssetDescription(ctx, input.Body)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(draft), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "draft-activity-analysis",
		Method:      http.MethodPost,
		Path:        "/records/{id}/drafts/analysis",
		Summary:     "Draft a comment for one activity record",
		Tags:        []string{"drafts"},
		Errors:      []int{http.StatusNotFound, http.StatusBadGateway, http.StatusServiceUnavailable},
	}, func(ctx context.Context, input *idPath) (*output[common.Draft], error) {
		draft, err := svc.DraftActivityAnalysis(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(draft), nil
	})
}

// splitList splits a comma-separated query value.
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
