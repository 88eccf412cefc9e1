// Package caselist projects stored cases into the filtered and sorted dashboard listing.
package caselist

import (
	"cmp"
	"github.com/myrjola/dfircase/internal/models"
	"slices"
	"strings"
)

// Field names a listing column.
type Field string

const (
	FieldCaseID      Field = "caseId"
	FieldAnalystName Field = "analystName"
	FieldStatus      Field = "status"
	FieldScope       Field = "scope"
	FieldCreatedAt   Field = "createdAt"
)

// FilterableFields are the columns that offer value filters.
var FilterableFields = []Field{FieldCaseID, FieldAnalystName, FieldStatus, FieldScope}

// ParseField recognizes listing columns by name.
func ParseField(name string) (Field, bool) {
	f := Field(name)
	if f == FieldCreatedAt || slices.Contains(FilterableFields, f) {
		return f, true
	}
	return "", false
}

// value returns the string form of a filterable field.
func value(c *models.Case, f Field) string {
	switch f {
	case FieldCaseID:
		return c.CaseID
	case FieldAnalystName:
		return c.AnalystName
	case FieldStatus:
		return string(c.Status)
	case FieldScope:
		return c.Scope
	case FieldCreatedAt:
		return c.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00")
	}
	return ""
}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

type Sort struct {
	Field     Field
	Direction Direction
}

// DefaultSort lists the newest cases first.
func DefaultSort() Sort {
	return Sort{Field: FieldCreatedAt, Direction: Descending}
}

// ToggleSort sorts by field ascending, or flips to descending when field is already sorted ascending.
func ToggleSort(current *Sort, field Field) Sort {
	if current != nil && current.Field == field && current.Direction == Ascending {
		return Sort{Field: field, Direction: Descending}
	}
	return Sort{Field: field, Direction: Ascending}
}

// ParseSort reads "field" or "field:asc" or "field:desc". A bare field sorts ascending.
func ParseSort(spec string) (Sort, bool) {
	name, dir, found := strings.Cut(spec, ":")
	field, ok := ParseField(name)
	if !ok {
		return Sort{}, false //nolint:exhaustruct // invalid
	}
	direction := Ascending
	if found {
		switch Direction(dir) {
		case Ascending, Descending:
			direction = Direction(dir)
		default:
			return Sort{}, false //nolint:exhaustruct // invalid
		}
	}
	return Sort{Field: field, Direction: direction}, true
}

func (s Sort) compare(a, b *models.Case) int {
	var result int
	if s.Field == FieldCreatedAt {
		result = a.CreatedAt.Compare(b.CreatedAt)
	} else {
		result = cmp.Compare(value(a, s.Field), value(b, s.Field))
	}
	if s.Direction == Descending {
		return -result
	}
	return result
}

// Filters maps a field to its allowed values. A field without an entry passes every case.
type Filters map[Field][]string

// Toggle adds value to the allowed values of field or removes it when already present. A filter left without
// values is dropped. The receiver is not modified.
func (f Filters) Toggle(field Field, v string) Filters {
	next := f.clone()
	values := next[field]
	if i := slices.Index(values, v); i >= 0 {
		values = slices.Delete(slices.Clone(values), i, i+1)
	} else {
		values = append(slices.Clone(values), v)
	}
	if len(values) == 0 {
		delete(next, field)
	} else {
		next[field] = values
	}
	return next
}

// Clear drops the filter of field. The receiver is not modified.
func (f Filters) Clear(field Field) Filters {
	next := f.clone()
	delete(next, field)
	return next
}

// ParseFilters builds filters from "field=value" pairs. Repeating a field allows several values.
func ParseFilters(pairs []string) (Filters, bool) {
	filters := Filters{}
	for _, pair := range pairs {
		name, v, found := strings.Cut(pair, "=")
		field, ok := ParseField(name)
		if !found || !ok {
			return nil, false
		}
		if !slices.Contains(filters[field], v) {
			filters[field] = append(filters[field], v)
		}
	}
	return filters, true
}

func (f Filters) clone() Filters {
	next := make(Filters, len(f))
	for k, v := range f {
		next[k] = v
	}
	return next
}

func (f Filters) matches(c *models.Case) bool {
	for field, allowed := range f {
		if len(allowed) == 0 {
			continue
		}
		if !slices.Contains(allowed, value(c, field)) {
			return false
		}
	}
	return true
}

// Project returns the cases passing all filters, ordered by sort. A nil sort keeps the input order.
// The input slice is not modified.
func Project(cases []models.Case, filters Filters, sort *Sort) []models.Case {
	result := make([]models.Case, 0, len(cases))
	for i := range cases {
		if filters.matches(&cases[i]) {
			result = append(result, cases[i])
		}
	}
	if sort != nil {
		slices.SortStableFunc(result, func(a, b models.Case) int {
			return sort.compare(&a, &b)
		})
	}
	return result
}

// ValueCount is one filter menu choice.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// DistinctValues counts the occurrences of every value of field, in order of first appearance.
func DistinctValues(cases []models.Case, field Field) []ValueCount {
	var counts []ValueCount
	index := map[string]int{}
	for i := range cases {
		v := value(&cases[i], field)
		if j, ok := index[v]; ok {
			counts[j].Count++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, ValueCount{Value: v, Count: 1})
	}
	return counts
}

// Facets returns the distinct values of every filterable field.
func Facets(cases []models.Case) map[Field][]ValueCount {
	facets := make(map[Field][]ValueCount, len(FilterableFields))
	for _, f := range FilterableFields {
		facets[f] = DistinctValues(cases, f)
	}
	return facets
}
