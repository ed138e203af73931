package engine

import (
	"net/url"
	"testing"
	"time"
)

func TestParseFiltersDefaults(t *testing.T) {
	f, err := ParseFilters(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Page != 1 || f.PerPage != defaultPerPage {
		t.Fatalf("pagination defaults mismatch: %+v", f)
	}
	if f.Historical() {
		t.Fatal("no cutoff requested")
	}
	if f.Offset() != 0 {
		t.Fatalf("offset: %d", f.Offset())
	}
}

func TestParseFiltersCounterpartyAliases(t *testing.T) {
	for _, key := range []string{"customer", "supplier", "counterparty"} {
		f, err := ParseFilters(url.Values{key: {" ACME "}})
		if err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if f.Counterparty != "ACME" {
			t.Fatalf("%s: got %q", key, f.Counterparty)
		}
	}
}

func TestParseFiltersCutoffExclusiveWithRange(t *testing.T) {
	_, err := ParseFilters(url.Values{
		"date_cutoff": {"2025-06-30"},
		"date_from":   {"2025-01-01"},
	})
	if err == nil {
		t.Fatal("expected mutual exclusion error")
	}
}

func TestParseFiltersRejectsBadDate(t *testing.T) {
	if _, err := ParseFilters(url.Values{"date_from": {"30/06/2025"}}); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := ParseFilters(url.Values{"payment_state": {"unknown"}}); err == nil {
		t.Fatal("expected payment state validation error")
	}
}

func TestParseFiltersClampsPerPage(t *testing.T) {
	_, err := ParseFilters(url.Values{"per_page": {"9000"}})
	if err == nil {
		t.Fatal("expected per_page ceiling to reject oversized request")
	}
}

func TestParseFiltersBooleansAndIDs(t *testing.T) {
	f, err := ParseFilters(url.Values{
		"include_reconciled": {"true"},
		"only_vouchers":      {"true"},
		"has_retention":      {"yes"},
		"sales_channel_id":   {"12"},
		"doc_type_id":        {"3"},
		"page":               {"4"},
		"per_page":           {"25"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IncludeReconciled || !f.OnlyVouchers {
		t.Fatal("boolean flags not parsed")
	}
	if f.HasRetention {
		t.Fatal("only the literal true counts")
	}
	if f.ChannelID != 12 || f.DocTypeID != 3 {
		t.Fatalf("id filters mismatch: %+v", f)
	}
	if f.Offset() != 75 {
		t.Fatalf("offset: %d", f.Offset())
	}
}

func TestAsOfPrefersCutoff(t *testing.T) {
	now := time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC)
	cutoff := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	f := Filters{CutoffDate: cutoff}
	if !f.AsOf(now).Equal(cutoff) {
		t.Fatalf("historical as-of mismatch: %v", f.AsOf(now))
	}
	f = Filters{}
	if f.AsOf(now).Hour() != 0 {
		t.Fatal("live as-of must truncate to the day")
	}
}

func TestAccountTokensSplitsAndTrims(t *testing.T) {
	f := Filters{AccountCodes: " 122 ,1212001,, 42 "}
	tokens := f.AccountTokens()
	if len(tokens) != 3 || tokens[0] != "122" || tokens[1] != "1212001" || tokens[2] != "42" {
		t.Fatalf("tokens mismatch: %v", tokens)
	}
}
