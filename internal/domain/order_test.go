package domain

import (
	"slices"
	"testing"
)

func TestMoveBoundariesAreNoOps(t *testing.T) {
	items := []string{"a", "b", "c"}
	tests := []struct {
		name  string
		key   string
		dir   Direction
		want  []string
		moved bool
	}{
		{name: "first up", key: "a", dir: DirectionUp, want: []string{"a", "b", "c"}},
		{name: "first left", key: "a", dir: DirectionLeft, want: []string{"a", "b", "c"}},
		{name: "last down", key: "c", dir: DirectionDown, want: []string{"a", "b", "c"}},
		{name: "last right", key: "c", dir: DirectionRight, want: []string{"a", "b", "c"}},
		{name: "missing", key: "z", dir: DirectionDown, want: []string{"a", "b", "c"}},
		{name: "middle up", key: "b", dir: DirectionUp, want: []string{"b", "a", "c"}, moved: true},
		{name: "middle right", key: "b", dir: DirectionRight, want: []string{"a", "c", "b"}, moved: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, moved := Move(items, tt.key, tt.dir)
			if moved != tt.moved {
				t.Fatalf("moved = %t, want %t", moved, tt.moved)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Move() = %#v, want %#v", got, tt.want)
			}
			sortedGot := slices.Sorted(slices.Values(got))
			if !slices.Equal(sortedGot, items) {
				t.Fatalf("member set changed: %#v", got)
			}
		})
	}
	if !slices.Equal(items, []string{"a", "b", "c"}) {
		t.Fatalf("input mutated: %#v", items)
	}
}

func TestMoveFuncReportsSwappedIndexes(t *testing.T) {
	type row struct {
		id    string
		order int
	}
	rows := []row{{"x", 0}, {"y", 4}, {"z", 9}}
	out, from, to, moved := MoveFunc(rows, func(r row) bool { return r.id == "y" }, DirectionDown)
	if !moved || from != 1 || to != 2 {
		t.Fatalf("MoveFunc() from=%d to=%d moved=%t", from, to, moved)
	}
	if out[1].id != "z" || out[2].id != "y" {
		t.Fatalf("unexpected order %#v", out)
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection(" Left "); err != nil || d != DirectionLeft {
		t.Fatalf("ParseDirection() = %q, %v", d, err)
	}
	if _, err := ParseDirection("sideways"); err != ErrInvalidDirection {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
}
