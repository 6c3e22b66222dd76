package docstore

import "fmt"

// Operator is a per-field comparison operator supported by the backing store.
type Operator string

const (
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpIn             Operator = "in"
	OpArrayContains  Operator = "array-contains"
)

// Clause is one filter condition. Clauses conjoin: every clause must match.
// There is no OR support; that is a scope boundary, not a gap.
type Clause struct {
	Field string
	Op    Operator
	Value any
}

// SortOrder defines the direction of sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Sort specifies field and direction for ordering results. A zero Sort
// (empty Field) means no explicit ordering.
type Sort struct {
	Field string
	Order SortOrder
}

// Direction resolves the effective sort order, defaulting to ascending.
func (s Sort) Direction() SortOrder {
	if s.Order == SortDesc {
		return SortDesc
	}
	return SortAsc
}

// QueryOptions describes one filtered/sorted/paginated read. Stages apply in
// a fixed order: filters, then sort, then cursor, then limit. Zero values
// mean "absent".
type QueryOptions struct {
	Filters []Clause
	Sort    Sort
	Cursor  string
	Limit   int
}

// Validate rejects malformed options before any backend work: empty clause
// fields, unknown operators, negative limits, and a cursor without a sort.
// A cursor needs a sort because "resume after" is ambiguous without one.
func (o QueryOptions) Validate() error {
	for i, clause := range o.Filters {
		if clause.Field == "" {
			return fmt.Errorf("filter clause %d has an empty field", i)
		}
		switch clause.Op {
		case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual, OpIn, OpArrayContains:
		default:
			return fmt.Errorf("filter clause %d has unsupported operator %q", i, clause.Op)
		}
	}
	switch o.Sort.Order {
	case "", SortAsc, SortDesc:
	default:
		return fmt.Errorf("unsupported sort order %q", o.Sort.Order)
	}
	if o.Cursor != "" && o.Sort.Field == "" {
		return fmt.Errorf("cursor requires a sort")
	}
	if o.Limit < 0 {
		return fmt.Errorf("limit must be positive, got %d", o.Limit)
	}
	return nil
}
