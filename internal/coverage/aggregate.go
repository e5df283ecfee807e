package coverage

import (
	"strings"

	"github.com/hylla/sudsboard/internal/domain"
)

// Dataset is one consistent snapshot of the four persisted areas.
// Assets must already be in display order.
type Dataset struct {
	Taxonomy  domain.Taxonomy
	Assets    []domain.AssetType
	Contracts []domain.Contract
	Records   []domain.ActivityRecord
}

// Asset returns the asset with id.
func (d Dataset) Asset(id string) (domain.AssetType, bool) {
	for _, a := range d.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return domain.AssetType{}, false
}

// Contract returns the contract with id.
func (d Dataset) Contract(id string) (domain.Contract, bool) {
	for _, c := range d.Contracts {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Contract{}, false
}

// ContractRow is one activity line in a contract view.
type ContractRow struct {
	RecordID         string                  `json:"record_id"`
	Category         string                  `json:"category"`
	ActivityName     string                  `json:"activity_name"`
	Status           domain.Status           `json:"status"`
	Comment          string                  `json:"comment"`
	Frequency        string                  `json:"frequency"`
	IsDependent      bool                    `json:"is_dependent"`
	Depth            int                     `json:"depth"`
	ValidationStatus domain.ValidationStatus `json:"validation_status"`
	ValidatorComment string                  `json:"validator_comment"`
	ValidatedBy      string                  `json:"validated_by"`
}

// ContractSection groups the rows of one asset.
type ContractSection struct {
	AssetID   string        `json:"asset_id"`
	AssetName string        `json:"asset_name"`
	Rows      []ContractRow `json:"rows"`
}

// ContractView lists, per asset, the resolved activities that involve one contract.
type ContractView struct {
	Contract domain.Contract   `json:"contract"`
	Sections []ContractSection `json:"sections"`
}

// RowCount returns the number of rows across all sections.
func (v ContractView) RowCount() int {
	n := 0
	for _, s := range v.Sections {
		n += len(s.Rows)
	}
	return n
}

// BuildContractView resolves every asset and keeps the rows naming the contract.
func BuildContractView(ds Dataset, contract domain.Contract) ContractView {
	view := ContractView{Contract: contract, Sections: []ContractSection{}}
	name := strings.TrimSpace(contract.Name)
	if name == "" {
		return view
	}
	for _, asset := range ds.Assets {
		var rows []ContractRow
		for _, item := range Resolve(asset.ID, ds.Records, ds.Taxonomy) {
			if !item.Record.InvolvesContract(name) {
				continue
			}
			r := item.Record
			rows = append(rows, ContractRow{
				RecordID:         r.ID,
				Category:         r.Category,
				ActivityName:     r.ActivityName,
				Status:           r.Status,
				Comment:          r.Comment,
				Frequency:        r.Frequency,
				IsDependent:      item.IsDependent,
				Depth:            item.Depth,
				ValidationStatus: r.ValidationStatus,
				ValidatorComment: r.ValidatorComment,
				ValidatedBy:      r.ValidatedBy,
			})
		}
		if len(rows) == 0 {
			continue
		}
		view.Sections = append(view.Sections, ContractSection{AssetID: asset.ID, AssetName: asset.Name, Rows: rows})
	}
	return view
}

// PivotOptions narrows the pivot.
type PivotOptions struct {
	Category string
}

// PivotColumn identifies one defined activity.
type PivotColumn struct {
	Category     string `json:"category"`
	ActivityName string `json:"activity_name"`
}

// PivotCell classifies one (asset x activity) pair. Present is false when no applicable record exists.
type PivotCell struct {
	Present          bool                    `json:"present"`
	RecordID         string                  `json:"record_id,omitempty"`
	Status           domain.Status           `json:"status"`
	ValidationStatus domain.ValidationStatus `json:"validation_status,omitempty"`
}

// PivotRow holds one asset's cells and stacked counts.
type PivotRow struct {
	AssetID          string         `json:"asset_id"`
	AssetName        string         `json:"asset_name"`
	Cells            []PivotCell    `json:"cells"`
	StatusCounts     map[string]int `json:"status_counts"`
	ValidationCounts map[string]int `json:"validation_counts"`
}

// TallyEntry is one slice of a distribution.
type TallyEntry struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Pivot is the cross-asset summary.
type Pivot struct {
	Category        string        `json:"category,omitempty"`
	Columns         []PivotColumn `json:"columns"`
	Rows            []PivotRow    `json:"rows"`
	Total           int           `json:"total"`
	StatusTally     []TallyEntry  `json:"status_tally"`
	ValidationTally []TallyEntry  `json:"validation_tally"`
}

// BuildPivot classifies every (asset x defined activity) pair and tallies the applicable records.
func BuildPivot(ds Dataset, opts PivotOptions) Pivot {
	category := strings.TrimSpace(opts.Category)
	pivot := Pivot{Category: category, Columns: []PivotColumn{}, Rows: []PivotRow{}}
	for _, cat := range ds.Taxonomy.Categories {
		if category != "" && cat != category {
			continue
		}
		for _, name := range ds.Taxonomy.Activities[cat] {
			pivot.Columns = append(pivot.Columns, PivotColumn{Category: cat, ActivityName: name})
		}
	}

	lookup := make(map[domain.ActivityKey]domain.ActivityRecord, len(ds.Records))
	for _, r := range ds.Records {
		if !r.Applies {
			continue
		}
		if _, seen := lookup[r.Key()]; !seen {
			lookup[r.Key()] = r
		}
	}

	statusTotals := map[string]int{}
	validationTotals := map[string]int{}
	for _, asset := range ds.Assets {
		row := PivotRow{
			AssetID:          asset.ID,
			AssetName:        asset.Name,
			Cells:            make([]PivotCell, 0, len(pivot.Columns)),
			StatusCounts:     zeroStatusCounts(),
			ValidationCounts: zeroValidationCounts(),
		}
		for _, col := range pivot.Columns {
			r, ok := lookup[domain.ActivityKey{AssetTypeID: asset.ID, Category: col.Category, ActivityName: col.ActivityName}]
			if !ok {
				row.Cells = append(row.Cells, PivotCell{})
				continue
			}
			validation := r.ValidationStatus
			if validation == "" {
				validation = domain.ValidationPending
			}
			row.Cells = append(row.Cells, PivotCell{
				Present:          true,
				RecordID:         r.ID,
				Status:           r.Status,
				ValidationStatus: validation,
			})
			row.StatusCounts[r.Status.Key()]++
			row.ValidationCounts[string(validation)]++
			statusTotals[r.Status.Key()]++
			validationTotals[string(validation)]++
			pivot.Total++
		}
		pivot.Rows = append(pivot.Rows, row)
	}

	for _, s := range domain.Statuses() {
		pivot.StatusTally = append(pivot.StatusTally, tally(s.Key(), s.Label(), statusTotals[s.Key()], pivot.Total))
	}
	for _, v := range domain.ValidationStatuses() {
		pivot.ValidationTally = append(pivot.ValidationTally, tally(string(v), v.Label(), validationTotals[string(v)], pivot.Total))
	}
	return pivot
}

// tally builds one distribution entry.
func tally(key, label string, count, total int) TallyEntry {
	entry := TallyEntry{Key: key, Label: label, Count: count}
	if total > 0 {
		entry.Percent = float64(count) * 100 / float64(total)
	}
	return entry
}

// zeroStatusCounts returns a count map with every status key present.
func zeroStatusCounts() map[string]int {
	out := make(map[string]int, len(domain.Statuses()))
	for _, s := range domain.Statuses() {
		out[s.Key()] = 0
	}
	return out
}

// zeroValidationCounts returns a count map with every validation key present.
func zeroValidationCounts() map[string]int {
	out := make(map[string]int, len(domain.ValidationStatuses()))
	for _, v := range domain.ValidationStatuses() {
		out[string(v)] = 0
	}
	return out
}
