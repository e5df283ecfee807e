package coverage

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hylla/sudsboard/internal/domain"
)

// entry is a comparable projection of one resolved activity.
type entry struct {
	ID        string
	Dependent bool
	Depth     int
}

// project flattens resolved output for diffs.
func project(items []ResolvedActivity) []entry {
	out := make([]entry, 0, len(items))
	for _, it := range items {
		out = append(out, entry{ID: it.Record.ID, Dependent: it.IsDependent, Depth: it.Depth})
	}
	return out
}

// rec builds one applicable record.
func rec(id, asset, category, name string, deps ...string) domain.ActivityRecord {
	return domain.ActivityRecord{
		ID:                  id,
		AssetTypeID:         asset,
		Category:            category,
		ActivityName:        name,
		Applies:             true,
		DependentActivities: deps,
		ValidationStatus:    domain.ValidationPending,
	}
}

func TestResolveGroupsDependentsUnderParent(t *testing.T) {
	tax := domain.Taxonomy{
		Categories: []string{"Vegetación", "Limpieza"},
		Activities: map[string][]string{
			"Limpieza":   {"Barrido", "Poda"},
			"Vegetación": {"Riego"},
		},
	}
	records := []domain.ActivityRecord{
		rec("r3", "A", "Vegetación", "Riego"),
		rec("r2", "A", "Limpieza", "Poda", "r3"),
		rec("r1", "A", "Limpieza", "Barrido"),
	}
	got := project(Resolve("A", records, tax))
	want := []entry{
		{ID: "r1"},
		{ID: "r2"},
		{ID: "r3", Dependent: true, Depth: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveTerminatesOnCycles(t *testing.T) {
	tax := domain.Taxonomy{
		Categories: []string{"Limpieza"},
		Activities: map[string][]string{"Limpieza": {"Barrido", "Poda"}},
	}
	records := []domain.ActivityRecord{
		rec("r4", "A", "Limpieza", "Barrido", "r5"),
		rec("r5", "A", "Limpieza", "Poda", "r4"),
	}
	got := project(Resolve("A", records, tax))
	want := []entry{
		{ID: "r4"},
		{ID: "r5", Dependent: true, Depth: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
	}

	selfLoop := []domain.ActivityRecord{rec("r6", "A", "Limpieza", "Barrido", "r6")}
	if got := project(Resolve("A", selfLoop, tax)); len(got) != 1 || got[0].ID != "r6" {
		t.Fatalf("self loop resolved to %#v", got)
	}
}

func TestResolveCycleBelowRootEmitsOnce(t *testing.T) {
	tax := domain.Taxonomy{
		Categories: []string{"Limpieza"},
		Activities: map[string][]string{"Limpieza": {"Barrido", "Poda", "Riego"}},
	}
	records := []domain.ActivityRecord{
		rec("a", "A", "Limpieza", "Barrido", "b"),
		rec("b", "A", "Limpieza", "Poda", "c"),
		rec("c", "A", "Limpieza", "Riego", "b", "a"),
	}
	got := project(Resolve("A", records, tax))
	want := []entry{
		{ID: "a"},
		{ID: "b", Dependent: true, Depth: 1},
		{ID: "c", Dependent: true, Depth: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFiltersAndOrdersUnknownNamesLast(t *testing.T) {
	tax := domain.Taxonomy{
		Categories: []string{"Limpieza", "Estructura"},
		Activities: map[string][]string{
			"Limpieza":   {"Barrido", "Poda"},
			"Estructura": {"Revisión"},
		},
	}
	off := rec("off", "A", "Limpieza", "Barrido")
	off.Applies = false
	records := []domain.ActivityRecord{
		rec("legacy", "A", "Limpieza", "Fregado"),
		rec("struct", "A", "Estructura", "Revisión"),
		rec("poda", "A", "Limpieza", "Poda", "other-asset", "off"),
		off,
		rec("other-asset", "B", "Limpieza", "Barrido"),
		rec("orphan-cat", "A", "Antigua", "Algo"),
	}
	got := project(Resolve("A", records, tax))
	want := []entry{
		{ID: "poda"},
		{ID: "legacy"},
		{ID: "struct"},
		{ID: "orphan-cat"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
	}
	if got := Resolve("missing", records, tax); got != nil {
		t.Fatalf("expected nil for unknown asset, got %#v", got)
	}
}

func TestResolveSortsSiblingDependents(t *testing.T) {
	tax := domain.Taxonomy{
		Categories: []string{"Limpieza"},
		Activities: map[string][]string{"Limpieza": {"Barrido", "Poda", "Riego", "Siega"}},
	}
	records := []domain.ActivityRecord{
		rec("root", "A", "Limpieza", "Barrido", "siega", "poda"),
		rec("siega", "A", "Limpieza", "Siega"),
		rec("poda", "A", "Limpieza", "Poda", "riego"),
		rec("riego", "A", "Limpieza", "Riego"),
	}
	got := project(Resolve("A", records, tax))
	want := []entry{
		{ID: "root"},
		{ID: "poda", Dependent: true, Depth: 1},
		{ID: "riego", Dependent: true, Depth: 2},
		{ID: "siega", Dependent: true, Depth: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}
