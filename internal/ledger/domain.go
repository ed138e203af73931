package ledger

// Domain is a search predicate against a ledger entity. The remote
// evaluates it as a conjunction of condition triplets in prefix
// notation: an "|" token joins the two following terms with OR, so a
// group of N alternatives is encoded as N-1 "|" tokens followed by the
// N conditions.
type Domain struct {
	clauses []any
}

// Cond builds a single [field, operator, value] condition triplet.
func Cond(field, op string, value any) []any {
	return []any{field, op, value}
}

// And appends a condition to the conjunction.
func (d *Domain) And(field, op string, value any) *Domain {
	d.clauses = append(d.clauses, Cond(field, op, value))
	return d
}

// AnyOf appends a group of conditions joined with OR. A single
// condition degenerates to a plain And; an empty group is a no-op.
func (d *Domain) AnyOf(conds ...[]any) *Domain {
	if len(conds) == 0 {
		return d
	}
	for i := 0; i < len(conds)-1; i++ {
		d.clauses = append(d.clauses, "|")
	}
	for _, c := range conds {
		d.clauses = append(d.clauses, c)
	}
	return d
}

// Clauses returns the wire representation consumed by the data source.
func (d *Domain) Clauses() []any {
	if d == nil || d.clauses == nil {
		return []any{}
	}
	return d.clauses
}

// Len reports the number of terms, operator tokens included.
func (d *Domain) Len() int {
	if d == nil {
		return 0
	}
	return len(d.clauses)
}
