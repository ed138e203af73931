package engine

import (
	"testing"
	"time"

	"github.com/quipu-reports/quipu/internal/ledger"
	"github.com/quipu-reports/quipu/internal/ledger/ledgertest"
)

func composeEngine() *Engine {
	p := testProfile()
	p.HomeCountry = "PE"
	return New(ledgertest.New(), p, nil)
}

func baseRelated() Related {
	return Related{
		Documents: map[int64]Document{
			100: {ID: 100, Number: "F001-123", DueDate: date(2025, 5, 31), PaymentState: "not_paid"},
		},
		Counterparties: map[int64]Counterparty{
			200: {ID: 200, Name: "ACME SAC", TaxID: "20123456789", CountryCode: "PE"},
		},
		Accounts: map[int64]Account{
			300: {ID: 300, Code: "1212001", Name: "Trade receivable"},
		},
		Credits:     map[int64]CreditInfo{},
		Banks:       map[int64][]BankAccount{},
		GroupNames:  map[int64]string{},
		BankDetails: map[int64]string{},
	}
}

func baseLine() LedgerLine {
	return LedgerLine{
		ID:           1,
		Document:     ledger.Ref{ID: 100, Name: "F001-123"},
		Counterparty: ledger.Ref{ID: 200, Name: "ACME SAC"},
		Account:      ledger.Ref{ID: 300, Name: "1212001"},
		Date:         date(2025, 4, 1),
		Debit:        1000,
		Residual:     700,
	}
}

func TestComposeRowLiveMode(t *testing.T) {
	eng := composeEngine()
	asOf := date(2025, 6, 15)

	row, keep := eng.composeRow(baseLine(), baseRelated(), nil, Filters{}, asOf)
	if !keep {
		t.Fatal("live row must be kept")
	}
	if row.DaysOverdue != 15 {
		t.Fatalf("days overdue: %d", row.DaysOverdue)
	}
	if row.DebtState != DebtOverdue {
		t.Fatalf("debt state: %s", row.DebtState)
	}
	if row.AgingBucket != BucketShort {
		t.Fatalf("aging bucket: %s", row.AgingBucket)
	}
	if row.HistoricalResidual != row.Residual {
		t.Fatal("live mode must carry the residual unchanged")
	}
	if row.AccountCode != "1212001" || row.CounterpartyName != "ACME SAC" {
		t.Fatalf("enrichment missing: %+v", row)
	}
}

func TestComposeRowNegativeResidualIsFolded(t *testing.T) {
	eng := composeEngine()
	line := baseLine()
	line.Credit, line.Debit = 500, 0
	line.Residual = -500

	row, _ := eng.composeRow(line, baseRelated(), nil, Filters{}, date(2025, 6, 15))
	if row.Residual != 500 {
		t.Fatalf("residual must be absolute: %v", row.Residual)
	}
}

func TestComposeRowHistoricalAddsBackLaterPayments(t *testing.T) {
	eng := composeEngine()
	cutoff := date(2025, 6, 30)
	line := baseLine()
	line.Residual = -500

	facts := map[int64]ReconciliationFact{
		1: {MaxDate: date(2025, 7, 2), PaidAfter: 200},
	}
	row, keep := eng.composeRow(line, baseRelated(), facts, Filters{CutoffDate: cutoff}, cutoff)
	if !keep {
		t.Fatal("open historical row must be kept")
	}
	if row.HistoricalResidual != 700 {
		t.Fatalf("historical residual: want 700, got %v", row.HistoricalResidual)
	}
	if row.PaidAfterCutoff != 200 {
		t.Fatalf("paid after: %v", row.PaidAfterCutoff)
	}
	if row.ReconciliationDate != "2025-07-02" {
		t.Fatalf("reconciliation date: %q", row.ReconciliationDate)
	}
}

func TestComposeRowSettledAtCutoffDropped(t *testing.T) {
	eng := composeEngine()
	cutoff := date(2025, 6, 30)
	line := baseLine()
	line.Reconciled = true
	line.Residual = 0

	facts := map[int64]ReconciliationFact{
		1: {MaxDate: date(2025, 5, 10), PaidBefore: 1000},
	}
	if _, keep := eng.composeRow(line, baseRelated(), facts, Filters{CutoffDate: cutoff}, cutoff); keep {
		t.Fatal("row settled before the cutoff must be dropped")
	}

	// With inclusion requested the row survives at zero.
	row, keep := eng.composeRow(line, baseRelated(), facts,
		Filters{CutoffDate: cutoff, IncludeReconciled: true}, cutoff)
	if !keep {
		t.Fatal("included settled row must be kept")
	}
	if row.HistoricalResidual != 0 {
		t.Fatalf("settled row must report zero, got %v", row.HistoricalResidual)
	}
}

func TestComposeRowReconciledAfterCutoffStaysOpen(t *testing.T) {
	eng := composeEngine()
	cutoff := date(2025, 6, 30)
	line := baseLine()
	line.Reconciled = true
	line.Residual = 0

	facts := map[int64]ReconciliationFact{
		1: {MaxDate: date(2025, 7, 15), PaidAfter: 1000},
	}
	row, keep := eng.composeRow(line, baseRelated(), facts, Filters{CutoffDate: cutoff}, cutoff)
	if !keep {
		t.Fatal("row settled after the cutoff was open at the cutoff")
	}
	if row.HistoricalResidual != 1000 {
		t.Fatalf("historical residual: %v", row.HistoricalResidual)
	}
}

func TestComposeRowUndatedReconciliationDropsConservatively(t *testing.T) {
	eng := composeEngine()
	cutoff := date(2025, 6, 30)
	line := baseLine()
	line.Reconciled = true

	// No partials carry dates at all: zero max date means settled.
	facts := map[int64]ReconciliationFact{1: {PaidBefore: 1000}}
	if _, keep := eng.composeRow(line, baseRelated(), facts, Filters{CutoffDate: cutoff}, cutoff); keep {
		t.Fatal("undated settled line must count as settled before the cutoff")
	}
}

func TestComposeRowMissingRelatedEntitiesZeroFields(t *testing.T) {
	eng := composeEngine()
	rel := baseRelated()
	delete(rel.Documents, 100)
	delete(rel.Accounts, 300)

	row, keep := eng.composeRow(baseLine(), rel, nil, Filters{}, date(2025, 6, 15))
	if !keep {
		t.Fatal("row must survive missing references")
	}
	if row.DocumentNumber != "" || row.AccountCode != "" {
		t.Fatalf("missing references must blank fields: %+v", row)
	}
	if row.CounterpartyName != "ACME SAC" {
		t.Fatal("present references must still resolve")
	}
}

func TestComposeRowDueDateFallsBackToDocument(t *testing.T) {
	eng := composeEngine()
	line := baseLine()
	line.Maturity = time.Time{}

	row, _ := eng.composeRow(line, baseRelated(), nil, Filters{}, date(2025, 6, 15))
	if row.DaysOverdue != 15 {
		t.Fatalf("document due date must drive aging: %d", row.DaysOverdue)
	}

	line.Maturity = date(2025, 6, 10)
	row, _ = eng.composeRow(line, baseRelated(), nil, Filters{}, date(2025, 6, 15))
	if row.DaysOverdue != 5 {
		t.Fatalf("line maturity must win over document due date: %d", row.DaysOverdue)
	}
}

func TestResolveSubChannel(t *testing.T) {
	eng := composeEngine()

	cases := []struct {
		name   string
		cp     Counterparty
		credit CreditInfo
		want   string
	}{
		{"explicit", Counterparty{CountryCode: "PE"}, CreditInfo{SubChannel: ledger.Ref{ID: 1, Name: "MAYORISTA"}}, "MAYORISTA"},
		{"explicit trimmed", Counterparty{CountryCode: "PE"}, CreditInfo{SubChannel: ledger.Ref{ID: 1, Name: "  MAYORISTA  "}}, "MAYORISTA"},
		{"placeholder falls through", Counterparty{CountryCode: "PE"}, CreditInfo{SubChannel: ledger.Ref{ID: 1, Name: "N/A"}}, "NACIONAL"},
		{"domestic", Counterparty{CountryCode: "PE"}, CreditInfo{}, "NACIONAL"},
		{"foreign", Counterparty{CountryCode: "CL"}, CreditInfo{}, "INTERNACIONAL"},
		{"unknown", Counterparty{}, CreditInfo{}, "N/A"},
	}
	for _, tc := range cases {
		if got := eng.resolveSubChannel(tc.cp, tc.credit); got != tc.want {
			t.Fatalf("%s: want %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestLateInterest(t *testing.T) {
	if lateInterest(5, 1000) != 0 {
		t.Fatal("inside grace period must accrue nothing")
	}
	got := lateInterest(30, 1000)
	want := 1000 * 0.12 * 30 / 360
	if got != want {
		t.Fatalf("late interest: want %v, got %v", want, got)
	}
	if lateInterest(30, -1000) != want {
		t.Fatal("interest must accrue on the absolute amount")
	}
}

func TestClassifyAgingBoundaries(t *testing.T) {
	cases := map[int]AgingBucket{
		-3: BucketCurrent, 0: BucketCurrent,
		1: BucketShort, 30: BucketShort,
		31: BucketMedium, 60: BucketMedium,
		61: BucketLong, 90: BucketLong,
		91: BucketJudicial, 400: BucketJudicial,
	}
	for days, want := range cases {
		if got := ClassifyAging(days); got != want {
			t.Fatalf("%d days: want %s, got %s", days, want, got)
		}
	}
}
