package engine

import (
	"log/slog"
	"math"
	"strings"
	"time"
)

// Late interest accrues at a fixed annual rate after a short grace
// period, matching the commercial policy applied to overdue invoices.
const (
	lateInterestAnnualRate = 0.12
	lateInterestGraceDays  = 8
	daysPerYear            = 360
)

// lateInterest computes simple interest on the overdue amount. Zero
// inside the grace period.
func lateInterest(daysOverdue int, amount float64) float64 {
	if daysOverdue <= lateInterestGraceDays {
		return 0
	}
	return math.Abs(amount) * lateInterestAnnualRate * float64(daysOverdue) / daysPerYear
}

// daysBetween counts whole days from a to b, negative when b precedes a.
func daysBetween(a, b time.Time) int {
	a = a.Truncate(24 * time.Hour)
	b = b.Truncate(24 * time.Hour)
	return int(b.Sub(a).Hours() / 24)
}

// composeRow merges a ledger line with its related entities and
// reconciliation facts into one denormalized report row. The boolean
// result is false when the row falls outside the requested scope (a
// line already settled at the cutoff with inclusion not requested).
// Missing references never fail: the affected fields stay at their zero
// values and a data inconsistency is logged.
func (e *Engine) composeRow(line LedgerLine, rel Related, facts map[int64]ReconciliationFact, f Filters, asOf time.Time) (ReportRow, bool) {
	doc, hasDoc := rel.Documents[line.Document.ID]
	cp, hasCP := rel.Counterparties[line.Counterparty.ID]
	acc, hasAcc := rel.Accounts[line.Account.ID]
	if line.Document.Valid() && !hasDoc || line.Counterparty.Valid() && !hasCP || line.Account.Valid() && !hasAcc {
		e.logger.Warn("line references missing related entity",
			slog.String("report", e.profile.Name),
			slog.Int64("line_id", line.ID))
	}

	due := line.Maturity
	if due.IsZero() {
		due = doc.DueDate
	}
	daysOverdue := 0
	if !due.IsZero() {
		daysOverdue = daysBetween(due, asOf)
	}
	state := DebtCurrent
	if daysOverdue > 0 {
		state = DebtOverdue
	}

	currency := line.Currency.Name
	if currency == "" {
		currency = doc.Currency.Name
	}

	row := ReportRow{
		LineID:         line.ID,
		DocumentNumber: doc.Number,
		DocumentType:   doc.DocType.Name,
		PaymentState:   doc.PaymentState,
		Reference:      doc.Reference,
		Origin:         doc.Origin,
		Label:          line.Label,

		AccountCode: acc.Code,
		AccountName: acc.Name,

		CounterpartyID:     line.Counterparty.ID,
		CounterpartyName:   cp.Name,
		TaxID:              cp.TaxID,
		CountryCode:        cp.CountryCode,
		CountryName:        cp.Country.Name,
		StateName:          cp.State.Name,
		District:           cp.District,
		CounterpartyGroups: rel.GroupsFor(cp),
		SubChannel:         e.resolveSubChannel(cp, rel.Credits[cp.ID]),
		SalesChannel:       doc.Channel.Name,
		Salesperson:        doc.Salesperson.Name,
		PaymentTerm:        doc.PaymentTerm.Name,

		Currency:              currency,
		AmountTotal:           doc.AmountTotal,
		AmountCurrency:        line.AmountCurrency,
		Debit:                 line.Debit,
		Credit:                line.Credit,
		Residual:              math.Abs(line.Residual),
		ResidualWithRetention: doc.ResidualWithRetention,

		PostingDate:  formatDate(line.Date),
		MaturityDate: formatDate(line.Maturity),
		IssueDate:    formatDate(doc.IssueDate),
		DueDate:      formatDate(doc.DueDate),

		DaysOverdue:  daysOverdue,
		DebtState:    state,
		AgingBucket:  ClassifyAging(max(0, daysOverdue)),
		LateInterest: lateInterest(daysOverdue, doc.ResidualWithRetention),
		Reconciled:   line.Reconciled,
	}

	if !f.Historical() {
		row.HistoricalResidual = row.Residual
		return row, true
	}

	fact := facts[line.ID]
	settledAtCutoff := line.Reconciled && (fact.MaxDate.IsZero() || !fact.MaxDate.After(f.CutoffDate))
	if settledAtCutoff && !f.IncludeReconciled {
		// Closed before the cutoff and outside the caller's scope.
		return ReportRow{}, false
	}

	row.PaidBeforeCutoff = fact.PaidBefore
	row.PaidAfterCutoff = fact.PaidAfter
	row.ReconciliationDate = formatDate(fact.MaxDate)
	if settledAtCutoff {
		row.HistoricalResidual = 0
	} else {
		row.HistoricalResidual = row.Residual + fact.PaidAfter
	}
	return row, true
}

// resolveSubChannel picks the effective sub-channel display value: the
// explicit credit-record classification when present, otherwise a
// nationality default derived from the counterparty country.
func (e *Engine) resolveSubChannel(cp Counterparty, credit CreditInfo) string {
	name := strings.TrimSpace(credit.SubChannel.Name)
	if name != "" && name != "N/A" {
		return name
	}
	switch {
	case cp.CountryCode == e.profile.homeCountry():
		return "NACIONAL"
	case cp.CountryCode != "":
		return "INTERNACIONAL"
	default:
		return "N/A"
	}
}
