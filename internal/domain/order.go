package domain

import "strings"

// Direction identifies one adjacent-swap move.
type Direction string

// Direction values. Up and left move toward index 0.
const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ParseDirection normalizes raw input into a Direction.
func ParseDirection(raw string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case DirectionUp:
		return DirectionUp, nil
	case DirectionDown:
		return DirectionDown, nil
	case DirectionLeft:
		return DirectionLeft, nil
	case DirectionRight:
		return DirectionRight, nil
	default:
		return "", ErrInvalidDirection
	}
}

// step returns -1 for up/left and +1 for down/right.
func (d Direction) step() int {
	switch d {
	case DirectionUp, DirectionLeft:
		return -1
	case DirectionDown, DirectionRight:
		return 1
	default:
		return 0
	}
}

// MoveFunc swaps the first item matching match with its neighbor in direction d.
// It returns a new slice plus the two swapped indexes; moved is false at a boundary,
// when nothing matches, or for an unknown direction. The input is never modified.
func MoveFunc[T any](items []T, match func(T) bool, d Direction) (out []T, from, to int, moved bool) {
	out = append([]T(nil), items...)
	from = -1
	for i, item := range items {
		if match(item) {
			from = i
			break
		}
	}
	step := d.step()
	if from < 0 || step == 0 {
		return out, -1, -1, false
	}
	to = from + step
	if to < 0 || to >= len(out) {
		return out, from, from, false
	}
	out[from], out[to] = out[to], out[from]
	return out, from, to, true
}

// Move swaps key with its neighbor in direction d.
func Move[T comparable](items []T, key T, d Direction) ([]T, bool) {
	out, _, _, moved := MoveFunc(items, func(v T) bool { return v == key }, d)
	return out, moved
}
