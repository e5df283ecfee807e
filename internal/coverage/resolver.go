// Package coverage resolves per-asset activity order and rolls activity records up into
// contract and cross-asset summaries. Everything here is a pure function over a snapshot.
package coverage

import (
	"cmp"
	"math"
	"slices"

	"github.com/hylla/sudsboard/internal/domain"
)

// ResolvedActivity is one entry of an asset's display sequence.
type ResolvedActivity struct {
	Record      domain.ActivityRecord
	IsDependent bool
	Depth       int
}

// frame is one pending stack entry of the depth-first walk.
type frame struct {
	idx       int
	depth     int
	dependent bool
}

// Resolve returns the display sequence for assetID. Top-level activities are sorted by
// category position then activity-name position, and each is followed by its dependents.
// Every applicable record is emitted exactly once, even when dependency edges form cycles.
func Resolve(assetID string, records []domain.ActivityRecord, tax domain.Taxonomy) []ResolvedActivity {
	arena := make([]domain.ActivityRecord, 0, len(records))
	for _, r := range records {
		if r.AssetTypeID == assetID && r.Applies {
			arena = append(arena, r)
		}
	}
	if len(arena) == 0 {
		return nil
	}

	byID := make(map[string]int, len(arena))
	for i, r := range arena {
		if r.ID == "" {
			continue
		}
		if _, seen := byID[r.ID]; !seen {
			byID[r.ID] = i
		}
	}

	dependent := make([]bool, len(arena))
	children := make([][]int, len(arena))
	for i, r := range arena {
		for _, depID := range r.DependentActivities {
			j, ok := byID[depID]
			if !ok {
				continue
			}
			dependent[j] = true
			if !slices.Contains(children[i], j) {
				children[i] = append(children[i], j)
			}
		}
	}

	less := sortKeyFunc(arena, tax)
	for i := range children {
		slices.SortStableFunc(children[i], less)
	}

	order := make([]int, len(arena))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, less)

	visited := make([]bool, len(arena))
	out := make([]ResolvedActivity, 0, len(arena))
	walk := func(root int) {
		stack := []frame{{idx: root}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[f.idx] {
				continue
			}
			visited[f.idx] = true
			out = append(out, ResolvedActivity{Record: arena[f.idx], IsDependent: f.dependent, Depth: f.depth})
			kids := children[f.idx]
			for k := len(kids) - 1; k >= 0; k-- {
				if !visited[kids[k]] {
					stack = append(stack, frame{idx: kids[k], depth: f.depth + 1, dependent: true})
				}
			}
		}
	}

	for _, idx := range order {
		if !dependent[idx] {
			walk(idx)
		}
	}
	// Records reachable only through a cycle have no root; surface them top-level.
	for _, idx := range order {
		if !visited[idx] {
			walk(idx)
		}
	}
	return out
}

// sortKeyFunc orders arena indexes by category position, then name position.
// Unknown categories sort after known ones and unknown names after defined ones.
func sortKeyFunc(arena []domain.ActivityRecord, tax domain.Taxonomy) func(a, b int) int {
	position := func(idx int) (int, int) {
		r := arena[idx]
		cat := tax.CategoryIndex(r.Category)
		if cat < 0 {
			cat = math.MaxInt
		}
		name := tax.ActivityIndex(r.Category, r.ActivityName)
		if name < 0 {
			name = math.MaxInt
		}
		return cat, name
	}
	return func(a, b int) int {
		ac, an := position(a)
		bc, bn := position(b)
		if c := cmp.Compare(ac, bc); c != 0 {
			return c
		}
		if c := cmp.Compare(arena[a].Category, arena[b].Category); c != 0 {
			return c
		}
		if c := cmp.Compare(an, bn); c != 0 {
			return c
		}
		if c := cmp.Compare(arena[a].ActivityName, arena[b].ActivityName); c != 0 {
			return c
		}
		return cmp.Compare(arena[a].ID, arena[b].ID)
	}
}
