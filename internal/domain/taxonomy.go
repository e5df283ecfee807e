package domain

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Taxonomy holds the ordered maintenance categories and, per category, the ordered activity names.
type Taxonomy struct {
	Categories []string
	Activities map[string][]string
}

// NormalizeCategoryName trims surrounding whitespace.
func NormalizeCategoryName(name string) string {
	return strings.TrimSpace(name)
}

// NormalizeActivityName upper-cases the first character and lower-cases the rest.
func NormalizeActivityName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}

// Clone returns a deep copy.
func (t Taxonomy) Clone() Taxonomy {
	out := Taxonomy{
		Categories: append([]string(nil), t.Categories...),
		Activities: make(map[string][]string, len(t.Activities)),
	}
	for category, names := range t.Activities {
		out.Activities[category] = append([]string(nil), names...)
	}
	return out
}

// HasCategory reports whether name is a known category.
func (t Taxonomy) HasCategory(name string) bool {
	return t.CategoryIndex(name) >= 0
}

// CategoryIndex returns the category position or -1.
func (t Taxonomy) CategoryIndex(name string) int {
	return slices.Index(t.Categories, name)
}

// ActivityIndex returns the activity-name position inside category or -1.
func (t Taxonomy) ActivityIndex(category, name string) int {
	return slices.Index(t.Activities[category], name)
}

// ActivityNames returns a copy of the ordered names defined for category.
func (t Taxonomy) ActivityNames(category string) []string {
	return append([]string(nil), t.Activities[category]...)
}

// AddCategory appends name to the category order.
func (t *Taxonomy) AddCategory(name string) (string, error) {
	name = NormalizeCategoryName(name)
	if name == "" {
		return "", ValidationInputError{Field: "category"}
	}
	if t.HasCategory(name) {
		return "", DuplicateError{Kind: KindCategory, Name: name}
	}
	t.Categories = append(t.Categories, name)
	return name, nil
}

// RemoveCategory drops the category and its activity-name list.
func (t *Taxonomy) RemoveCategory(name string) error {
	idx := t.CategoryIndex(NormalizeCategoryName(name))
	if idx < 0 {
		return NotFoundError{Kind: KindCategory, Key: name}
	}
	removed := t.Categories[idx]
	t.Categories = slices.Delete(slices.Clone(t.Categories), idx, idx+1)
	if t.Activities != nil {
		delete(t.Activities, removed)
	}
	return nil
}

// MoveCategory swaps the category with its neighbor; moved is false at a boundary.
func (t *Taxonomy) MoveCategory(name string, d Direction) (bool, error) {
	name = NormalizeCategoryName(name)
	if !t.HasCategory(name) {
		return false, NotFoundError{Kind: KindCategory, Key: name}
	}
	out, moved := Move(t.Categories, name, d)
	t.Categories = out
	return moved, nil
}

// AddActivity appends a normalized activity name to category and returns the stored name.
func (t *Taxonomy) AddActivity(category, name string) (string, error) {
	category = NormalizeCategoryName(category)
	if !t.HasCategory(category) {
		return "", NotFoundError{Kind: KindCategory, Key: category}
	}
	name = NormalizeActivityName(name)
	if name == "" {
		return "", ValidationInputError{Field: "activity_name"}
	}
	if t.ActivityIndex(category, name) >= 0 {
		return "", DuplicateError{Kind: KindActivityName, Name: name}
	}
	if t.Activities == nil {
		t.Activities = map[string][]string{}
	}
	t.Activities[category] = append(slices.Clone(t.Activities[category]), name)
	return name, nil
}

// RemoveActivity drops one activity name from category and returns the stored name.
func (t *Taxonomy) RemoveActivity(category, name string) (string, error) {
	category = NormalizeCategoryName(category)
	idx, stored := t.lookupActivity(category, name)
	if idx < 0 {
		return "", NotFoundError{Kind: KindActivityName, Key: category + "/" + name}
	}
	t.Activities[category] = slices.Delete(slices.Clone(t.Activities[category]), idx, idx+1)
	return stored, nil
}

// RenameActivity replaces oldName with newName at the same position.
// It returns the stored old name and the normalized new name.
func (t *Taxonomy) RenameActivity(category, oldName, newName string) (string, string, error) {
	category = NormalizeCategoryName(category)
	idx, stored := t.lookupActivity(category, oldName)
	if idx < 0 {
		return "", "", NotFoundError{Kind: KindActivityName, Key: category + "/" + oldName}
	}
	newName = NormalizeActivityName(newName)
	if newName == "" {
		return "", "", ValidationInputError{Field: "new_name"}
	}
	if other := t.ActivityIndex(category, newName); other >= 0 && other != idx {
		return "", "", DuplicateError{Kind: KindActivityName, Name: newName}
	}
	names := slices.Clone(t.Activities[category])
	names[idx] = newName
	t.Activities[category] = names
	return stored, newName, nil
}

// MoveActivity swaps one activity name with its neighbor inside category.
func (t *Taxonomy) MoveActivity(category, name string, d Direction) (bool, error) {
	category = NormalizeCategoryName(category)
	idx, stored := t.lookupActivity(category, name)
	if idx < 0 {
		return false, NotFoundError{Kind: KindActivityName, Key: category + "/" + name}
	}
	out, moved := Move(t.Activities[category], stored, d)
	t.Activities[category] = out
	return moved, nil
}

// CanonicalKey maps key onto the names the taxonomy stores.
// Undefined activity names take their normalized form.
func (t Taxonomy) CanonicalKey(key ActivityKey) ActivityKey {
	key = key.Normalize()
	key.Category = NormalizeCategoryName(key.Category)
	if _, stored := t.lookupActivity(key.Category, key.ActivityName); stored != "" {
		key.ActivityName = stored
		return key
	}
	key.ActivityName = NormalizeActivityName(key.ActivityName)
	return key
}

// lookupActivity finds a name exactly first, then by its normalized form.
func (t Taxonomy) lookupActivity(category, name string) (int, string) {
	names := t.Activities[category]
	trimmed := strings.TrimSpace(name)
	if idx := slices.Index(names, trimmed); idx >= 0 {
		return idx, trimmed
	}
	normalized := NormalizeActivityName(name)
	if idx := slices.Index(names, normalized); idx >= 0 {
		return idx, normalized
	}
	return -1, ""
}
