package payables

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quipu-reports/quipu/internal/engine"
	"github.com/quipu-reports/quipu/internal/ledger"
	"github.com/quipu-reports/quipu/internal/ledger/ledgertest"
)

func TestNormalizeForcesInclusionUnderCutoff(t *testing.T) {
	f := normalize(engine.Filters{CutoffDate: time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)})
	if !f.IncludeReconciled {
		t.Fatal("a cutoff must imply include_reconciled")
	}
	if normalize(engine.Filters{}).IncludeReconciled {
		t.Fatal("live mode must stay untouched")
	}
}

func TestSupplierBanksResolvesMasterData(t *testing.T) {
	src := ledgertest.New()
	src.Add(ledger.EntityBankAccount, ledger.Record{
		"id":          float64(1),
		"partner_id":  []any{float64(200), "ACME SAC"},
		"acc_number":  "001-1234567",
		"bank_id":     []any{float64(10), "Banco Continental"},
		"currency_id": []any{float64(3), "PEN"},
	})
	src.Add(ledger.EntityBank, ledger.Record{"id": float64(10), "bic": "BCONPEPL"})
	src.Add(ledger.EntityCounterparty, ledger.Record{"id": float64(200), "vat": "20123456789"})

	svc := NewService(engine.New(src, NewProfile("PE"), nil), src, nil)
	banks, err := svc.SupplierBanks(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(banks) != 1 {
		t.Fatalf("expected one account, got %d", len(banks))
	}
	b := banks[0]
	if b.SupplierName != "ACME SAC" || b.TaxID != "20123456789" {
		t.Fatalf("supplier mismatch: %+v", b)
	}
	if b.AccountNumber != "001-1234567" || b.BankName != "Banco Continental" {
		t.Fatalf("account mismatch: %+v", b)
	}
	if b.BIC != "BCONPEPL" || b.Currency != "PEN" {
		t.Fatalf("master data mismatch: %+v", b)
	}
}

func TestSupplierBanksDegradeToBlankMasterData(t *testing.T) {
	src := ledgertest.New()
	src.Add(ledger.EntityBankAccount, ledger.Record{
		"id":         float64(1),
		"partner_id": []any{float64(200), "ACME SAC"},
		"acc_number": "001-1234567",
		"bank_id":    []any{float64(10), "Banco Continental"},
	})
	src.FailEntity(ledger.EntityBank, errors.New("boom"))
	src.FailEntity(ledger.EntityCounterparty, errors.New("boom"))

	svc := NewService(engine.New(src, NewProfile("PE"), nil), src, nil)
	banks, err := svc.SupplierBanks(context.Background(), "")
	if err != nil {
		t.Fatalf("master data failure must not abort the listing: %v", err)
	}
	if banks[0].BIC != "" || banks[0].TaxID != "" {
		t.Fatalf("expected blank master data: %+v", banks[0])
	}
	if banks[0].SupplierName != "ACME SAC" {
		t.Fatal("first wave data must survive")
	}
}

func TestSupplierBanksNameFilterReachesDomain(t *testing.T) {
	src := ledgertest.New()
	svc := NewService(engine.New(src, NewProfile("PE"), nil), src, nil)

	if _, err := svc.SupplierBanks(context.Background(), "acme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := src.CallsFor(ledger.EntityBankAccount)
	if len(calls) != 1 {
		t.Fatalf("expected one search, got %d", len(calls))
	}
	if len(calls[0].Domain.Clauses()) == 0 {
		t.Fatal("name filter must narrow the search")
	}
}
