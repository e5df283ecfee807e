package coverage

import (
	"strings"
	"testing"

	"github.com/hylla/sudsboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureDataset builds two assets with a small taxonomy.
func fixtureDataset() Dataset {
	zanja := domain.AssetType{ID: "zanja", Name: "Zanja de infiltración", Order: 0}
	cubierta := domain.AssetType{ID: "cubierta", Name: "Cubierta vegetada", Order: 1}

	barrido := rec("r1", "zanja", "Limpieza", "Barrido", "r2")
	barrido.Status = domain.StatusIncluded
	barrido.Frequency = "Mensual"
	barrido.InvolvedContracts = []string{"Conservación 2024"}

	poda := rec("r2", "zanja", "Vegetación", "Poda")
	poda.Status = domain.StatusIntegrable
	poda.InvolvedContracts = []string{"Conservación 2024", "Jardinería"}
	poda.ValidationStatus = domain.ValidationValidated
	poda.ValidatedBy = "v1"

	riego := rec("r3", "cubierta", "Vegetación", "Riego")
	riego.Status = domain.StatusSpecific
	riego.InvolvedContracts = []string{"Jardinería"}
	riego.ValidationStatus = domain.ValidationRejected

	inactive := rec("r4", "cubierta", "Limpieza", "Barrido")
	inactive.Applies = false
	inactive.InvolvedContracts = []string{"Conservación 2024"}

	orphan := rec("r5", "deleted-asset", "Limpieza", "Barrido")
	orphan.InvolvedContracts = []string{"Conservación 2024"}

	return Dataset{
		Taxonomy: domain.Taxonomy{
			Categories: []string{"Limpieza", "Vegetación"},
			Activities: map[string][]string{
				"Limpieza":   {"Barrido"},
				"Vegetación": {"Poda", "Riego"},
			},
		},
		Assets: []domain.AssetType{zanja, cubierta},
		Contracts: []domain.Contract{
			{ID: "c1", Name: "Conservación 2024"},
			{ID: "c2", Name: "Jardinería"},
		},
		Records: []domain.ActivityRecord{barrido, poda, riego, inactive, orphan},
	}
}

func TestBuildContractViewFollowsResolvedOrder(t *testing.T) {
	ds := fixtureDataset()
	contract, ok := ds.Contract("c1")
	require.True(t, ok)

	view := BuildContractView(ds, contract)
	require.Len(t, view.Sections, 1)
	section := view.Sections[0]
	assert.Equal(t, "Zanja de infiltración", section.AssetName)
	require.Len(t, section.Rows, 2)
	assert.Equal(t, "Barrido", section.Rows[0].ActivityName)
	assert.Equal(t, domain.StatusIncluded, section.Rows[0].Status)
	assert.False(t, section.Rows[0].IsDependent)
	assert.Equal(t, "Poda", section.Rows[1].ActivityName)
	assert.True(t, section.Rows[1].IsDependent)
	assert.Equal(t, "v1", section.Rows[1].ValidatedBy)
	assert.Equal(t, 2, view.RowCount())
}

func TestBuildContractViewSkipsAssetsWithoutRows(t *testing.T) {
	ds := fixtureDataset()
	contract, _ := ds.Contract("c2")
	view := BuildContractView(ds, contract)
	require.Len(t, view.Sections, 2)
	assert.Equal(t, []string{"zanja", "cubierta"}, []string{view.Sections[0].AssetID, view.Sections[1].AssetID})

	empty := BuildContractView(ds, domain.Contract{ID: "c9", Name: "Sin uso"})
	assert.Empty(t, empty.Sections)
}

func TestBuildPivotTalliesApplicableRecords(t *testing.T) {
	ds := fixtureDataset()
	pivot := BuildPivot(ds, PivotOptions{})

	require.Len(t, pivot.Columns, 3)
	require.Len(t, pivot.Rows, 2)
	assert.Equal(t, 3, pivot.Total)

	zanja := pivot.Rows[0]
	assert.True(t, zanja.Cells[0].Present)
	assert.Equal(t, domain.StatusIncluded, zanja.Cells[0].Status)
	assert.True(t, zanja.Cells[1].Present)
	assert.False(t, zanja.Cells[2].Present)
	assert.Equal(t, 1, zanja.StatusCounts["verde"])
	assert.Equal(t, 1, zanja.StatusCounts["amarillo"])
	assert.Equal(t, 0, zanja.StatusCounts["rojo"])
	assert.Equal(t, 1, zanja.ValidationCounts["pending"])
	assert.Equal(t, 1, zanja.ValidationCounts["validated"])

	cubierta := pivot.Rows[1]
	assert.False(t, cubierta.Cells[0].Present, "inactive record must not produce a cell")
	assert.Equal(t, 1, cubierta.ValidationCounts["rejected"])

	byKey := map[string]TallyEntry{}
	for _, e := range pivot.StatusTally {
		byKey[e.Key] = e
	}
	assert.Equal(t, 1, byKey["rojo"].Count)
	assert.InDelta(t, 100.0/3, byKey["rojo"].Percent, 0.001)
	assert.Equal(t, 0, byKey["unset"].Count)
	assert.Len(t, pivot.ValidationTally, 3)
}

func TestBuildPivotCategoryFilter(t *testing.T) {
	ds := fixtureDataset()
	pivot := BuildPivot(ds, PivotOptions{Category: "Limpieza"})
	require.Len(t, pivot.Columns, 1)
	assert.Equal(t, 1, pivot.Total)
	for _, e := range pivot.StatusTally {
		if e.Key == "verde" {
			assert.Equal(t, 1, e.Count)
			assert.InDelta(t, 100.0, e.Percent, 0.001)
		}
	}

	none := BuildPivot(ds, PivotOptions{Category: "Inexistente"})
	assert.Empty(t, none.Columns)
	assert.Zero(t, none.Total)
	for _, e := range none.StatusTally {
		assert.Zero(t, e.Percent)
	}
}

func TestContractMarkdown(t *testing.T) {
	ds := fixtureDataset()
	contract, _ := ds.Contract("c1")
	contract.Responsible = "Dirección de Zonas Verdes"
	md := ContractMarkdown(BuildContractView(ds, contract))
	assert.True(t, strings.HasPrefix(md, "# Conservación 2024\n"))
	assert.Contains(t, md, "## Zanja de infiltración")
	assert.Contains(t, md, "| Limpieza | Barrido | Incluida | Mensual |")
	assert.Contains(t, md, "↳ Poda")

	empty := ContractMarkdown(ContractView{Contract: domain.Contract{Name: "Vacío"}})
	assert.Contains(t, empty, "Sin actividades asociadas")
}
