package filter

import "slices"

// Choice is a single-select facet value. The zero Choice matches everything;
// an explicit empty string is a real selection and only matches empty fields.
type Choice struct {
	value string
	set   bool
}

// Any returns the unset Choice
func Any() Choice { return Choice{} }

// Only returns a Choice that matches exactly v
func Only(v string) Choice { return Choice{value: v, set: true} }

// Value reports the selected value and whether one is selected
func (c Choice) Value() (string, bool) { return c.value, c.set }

// IsSet reports whether a value is selected
func (c Choice) IsSet() bool { return c.set }

// Matches reports whether a record field satisfies the choice
func (c Choice) Matches(field string) bool {
	return !c.set || c.value == field
}

func (c Choice) String() string {
	if !c.set {
		return "all"
	}
	return c.value
}

// Selection is an ordered multi-select facet. The zero Selection is empty,
// and an empty Selection applies no constraint.
type Selection struct {
	values []string
}

// Select builds a selection, dropping duplicates
func Select(values ...string) Selection {
	var s Selection
	for _, v := range values {
		if !s.Has(v) {
			s.values = append(s.values, v)
		}
	}
	return s
}

// Toggle returns a copy with v removed if present, otherwise appended.
// The receiver is left unchanged, so Toggle(v).Toggle(v) equals the original.
func (s Selection) Toggle(v string) Selection {
	if i := slices.Index(s.values, v); i >= 0 {
		return Selection{values: slices.Delete(slices.Clone(s.values), i, i+1)}
	}
	return Selection{values: append(slices.Clone(s.values), v)}
}

// Has reports whether v is selected
func (s Selection) Has(v string) bool { return slices.Contains(s.values, v) }

// Len returns the number of selected values
func (s Selection) Len() int { return len(s.values) }

// Values returns the selected values in selection order
func (s Selection) Values() []string { return slices.Clone(s.values) }

// Equal reports whether both selections hold the same values in the same order
func (s Selection) Equal(o Selection) bool { return slices.Equal(s.values, o.values) }

// Intersects reports whether any of fields is selected
func (s Selection) Intersects(fields []string) bool {
	for _, f := range fields {
		if s.Has(f) {
			return true
		}
	}
	return false
}

// Distinct returns the distinct values in order of first occurrence
func Distinct(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// DistinctBy collects field values across records, first occurrence first
func DistinctBy[T any](records []T, field func(T) []string) []string {
	var all []string
	for _, r := range records {
		all = append(all, field(r)...)
	}
	return Distinct(all)
}
