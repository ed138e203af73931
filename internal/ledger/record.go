package ledger

import "time"

// Ref is a reference field as returned by the ledger: a pair of id and
// display name. The zero value means the field was empty.
type Ref struct {
	ID   int64
	Name string
}

// Valid reports whether the reference points at a record.
func (r Ref) Valid() bool { return r.ID != 0 }

// Record is one entity snapshot as decoded from the wire. The remote
// encodes empty fields as boolean false rather than null, so every
// accessor tolerates both shapes and falls back to the zero value.
type Record map[string]any

const dateLayout = "2006-01-02"

// ID returns the record identity.
func (r Record) ID() int64 {
	return r.Int("id")
}

// Int reads an integer field.
func (r Record) Int(field string) int64 {
	switch v := r[field].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// Float reads a numeric field.
func (r Record) Float(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Str reads a text field.
func (r Record) Str(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// Bool reads a boolean field. Only a true boolean counts: the remote
// also uses false as its null marker.
func (r Record) Bool(field string) bool {
	b, ok := r[field].(bool)
	return ok && b
}

// Date parses a date field. The zero time is returned for empty or
// malformed values.
func (r Record) Date(field string) time.Time {
	s := r.Str(field)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Ref decodes a to-one reference field, which arrives as [id, name].
func (r Record) Ref(field string) Ref {
	pair, ok := r[field].([]any)
	if !ok || len(pair) < 2 {
		return Ref{}
	}
	ref := Ref{}
	switch id := pair[0].(type) {
	case float64:
		ref.ID = int64(id)
	case int64:
		ref.ID = id
	case int:
		ref.ID = int64(id)
	}
	if name, ok := pair[1].(string); ok {
		ref.Name = name
	}
	return ref
}

// IDs decodes a to-many reference field, which arrives as a list of ids.
func (r Record) IDs(field string) []int64 {
	list, ok := r[field].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(list))
	for _, item := range list {
		switch id := item.(type) {
		case float64:
			ids = append(ids, int64(id))
		case int64:
			ids = append(ids, id)
		case int:
			ids = append(ids, int64(id))
		}
	}
	return ids
}
