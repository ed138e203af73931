package ledger

import (
	"reflect"
	"testing"
)

func TestAndAppendsTriplets(t *testing.T) {
	d := (&Domain{}).
		And("parent_state", "=", "posted").
		And("reconciled", "=", false)

	want := []any{
		[]any{"parent_state", "=", "posted"},
		[]any{"reconciled", "=", false},
	}
	if !reflect.DeepEqual(d.Clauses(), want) {
		t.Fatalf("clauses mismatch: %#v", d.Clauses())
	}
}

func TestAnyOfPrefixNotation(t *testing.T) {
	d := (&Domain{}).AnyOf(
		Cond("account_id.code", "=like", "12%"),
		Cond("account_id.code", "=like", "13%"),
		Cond("account_id.code", "=", "1212001"),
	)

	clauses := d.Clauses()
	if len(clauses) != 5 {
		t.Fatalf("expected 2 operators + 3 conditions, got %d terms", len(clauses))
	}
	if clauses[0] != "|" || clauses[1] != "|" {
		t.Fatalf("expected leading | tokens, got %#v", clauses[:2])
	}
	if _, ok := clauses[2].([]any); !ok {
		t.Fatalf("expected condition triplet at index 2, got %#v", clauses[2])
	}
}

func TestAnyOfSingleConditionHasNoOperator(t *testing.T) {
	d := (&Domain{}).AnyOf(Cond("account_id.code", "=like", "42%"))
	if d.Len() != 1 {
		t.Fatalf("expected single term, got %d", d.Len())
	}
}

func TestAnyOfEmptyIsNoop(t *testing.T) {
	d := (&Domain{}).AnyOf()
	if d.Len() != 0 {
		t.Fatalf("expected empty domain, got %d terms", d.Len())
	}
}

func TestClausesNeverNil(t *testing.T) {
	var d *Domain
	if d.Clauses() == nil {
		t.Fatal("nil domain must serialise to an empty list")
	}
	if (&Domain{}).Clauses() == nil {
		t.Fatal("empty domain must serialise to an empty list")
	}
}
