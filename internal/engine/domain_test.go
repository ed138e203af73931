package engine

import (
	"fmt"
	"testing"
	"time"
)

func testProfile() Profile {
	return Profile{
		Name:                 "receivables",
		DocumentTypes:        []string{"out_invoice", "out_refund", "entry"},
		VoucherTypes:         []string{"out_invoice", "out_refund"},
		DefaultAccountCodes:  []string{"122", "123"},
		ExcludedAccountCodes: []string{"1239001"},
	}
}

// clauseStrings renders each term for easy containment checks.
func clauseStrings(clauses []any) []string {
	out := make([]string, 0, len(clauses))
	for _, c := range clauses {
		out = append(out, fmt.Sprintf("%v", c))
	}
	return out
}

func hasClause(clauses []any, field, op string, value any) bool {
	want := fmt.Sprintf("%v", []any{field, op, value})
	for _, c := range clauseStrings(clauses) {
		if c == want {
			return true
		}
	}
	return false
}

func TestBuildDomainDefaultsToProfileCodes(t *testing.T) {
	d := BuildDomain(Filters{}, testProfile(), "")
	clauses := d.Clauses()

	if !hasClause(clauses, "account_id.code", "=like", "122%") {
		t.Fatalf("missing default prefix condition: %v", clauseStrings(clauses))
	}
	if !hasClause(clauses, "account_id.code", "=like", "123%") {
		t.Fatal("missing second default prefix condition")
	}
	if !hasClause(clauses, "parent_state", "=", "posted") {
		t.Fatal("missing posted filter")
	}
	if !hasClause(clauses, "reconciled", "=", false) {
		t.Fatal("live mode must restrict to open lines")
	}
	if !hasClause(clauses, "account_id.code", "!=", "1239001") {
		t.Fatal("excluded code must be carved out")
	}
}

func TestBuildDomainExactTokenForLongNumericCodes(t *testing.T) {
	f := Filters{AccountCodes: "1212001,42"}
	d := BuildDomain(f, testProfile(), "")
	clauses := d.Clauses()

	if !hasClause(clauses, "account_id.code", "=", "1212001") {
		t.Fatal("6+ digit numeric token must match exactly")
	}
	if !hasClause(clauses, "account_id.code", "=like", "42%") {
		t.Fatal("short token must match as prefix")
	}
}

func TestBuildDomainAlphanumericTokenStaysPrefix(t *testing.T) {
	d := BuildDomain(Filters{AccountCodes: "12A4567"}, testProfile(), "")
	if !hasClause(d.Clauses(), "account_id.code", "=like", "12A4567%") {
		t.Fatal("non-numeric token must stay a prefix match regardless of length")
	}
}

func TestBuildDomainExplicitExcludedCodeWins(t *testing.T) {
	d := BuildDomain(Filters{AccountCodes: "1239001"}, testProfile(), "")
	if hasClause(d.Clauses(), "account_id.code", "!=", "1239001") {
		t.Fatal("explicitly requested code must not be excluded")
	}
	if !hasClause(d.Clauses(), "account_id.code", "=", "1239001") {
		t.Fatal("requested code missing")
	}
}

func TestBuildDomainEmptyScopeMatchesNothing(t *testing.T) {
	p := testProfile()
	p.DefaultAccountCodes = nil
	d := BuildDomain(Filters{}, p, "")
	if !hasClause(d.Clauses(), "id", "=", 0) {
		t.Fatal("missing impossible predicate")
	}
}

func TestBuildDomainHistoricalMode(t *testing.T) {
	cutoff := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	d := BuildDomain(Filters{CutoffDate: cutoff}, testProfile(), "")
	clauses := d.Clauses()

	if !hasClause(clauses, "date", "<=", "2025-06-30") {
		t.Fatal("historical mode must bound the posting date")
	}
	if hasClause(clauses, "reconciled", "=", false) {
		t.Fatal("historical mode must fetch reconciled lines too")
	}
}

func TestBuildDomainOnlyVouchersNarrowsFamily(t *testing.T) {
	d := BuildDomain(Filters{OnlyVouchers: true}, testProfile(), "")
	want := fmt.Sprintf("%v", []any{"move_id.move_type", "in", []string{"out_invoice", "out_refund"}})
	found := false
	for _, c := range clauseStrings(d.Clauses()) {
		if c == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("voucher family missing: %v", clauseStrings(d.Clauses()))
	}
}

func TestBuildDomainChannelHeuristic(t *testing.T) {
	p := testProfile()
	p.HomeCountry = "PE"

	d := BuildDomain(Filters{ChannelID: 5}, p, "Venta Internacional")
	if !hasClause(d.Clauses(), "partner_id.country_code", "!=", "PE") {
		t.Fatal("international channel must exclude domestic counterparties")
	}

	d = BuildDomain(Filters{ChannelID: 5}, p, "VENTA NACIONAL")
	if !hasClause(d.Clauses(), "partner_id.country_code", "=", "PE") {
		t.Fatal("national channel must restrict to domestic counterparties")
	}

	// Accent folding: INTERNACIONAL wins over the NACIONAL substring.
	d = BuildDomain(Filters{ChannelID: 5}, p, "Ventas Internaciónal")
	if !hasClause(d.Clauses(), "partner_id.country_code", "!=", "PE") {
		t.Fatal("accented channel name must still classify as international")
	}

	// Doc-type filter disables the heuristic.
	d = BuildDomain(Filters{ChannelID: 5, DocTypeID: 9}, p, "Venta Internacional")
	if hasClause(d.Clauses(), "partner_id.country_code", "!=", "PE") {
		t.Fatal("heuristic must not apply alongside a document type filter")
	}
}

func TestBuildDomainOptionalFilters(t *testing.T) {
	f := Filters{
		Counterparty: "acme",
		PaymentState: "partial",
		Reference:    "OC-123",
		HasRetention: true,
		HasOrigin:    true,
	}
	d := BuildDomain(f, testProfile(), "")
	clauses := d.Clauses()

	if !hasClause(clauses, "partner_id.name", "ilike", "acme") {
		t.Fatal("counterparty filter missing")
	}
	if !hasClause(clauses, "move_id.payment_state", "=", "partial") {
		t.Fatal("payment state filter missing")
	}
	if !hasClause(clauses, "move_id.ref", "ilike", "OC-123") {
		t.Fatal("reference filter missing")
	}
	if !hasClause(clauses, "move_id.amount_residual_with_retention", ">", 0) {
		t.Fatal("retention filter missing")
	}
	if !hasClause(clauses, "move_id.invoice_origin", "!=", false) {
		t.Fatal("origin filter missing")
	}
}
