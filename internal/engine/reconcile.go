package engine

import (
	"context"
	"time"

	"github.com/quipu-reports/quipu/internal/ledger"
)

// ReconciliationFact summarizes the payment-matching history of one
// line relative to a cutoff date.
type ReconciliationFact struct {
	// MaxDate is the latest matching date among the line's partial
	// reconciliations, zero when none carries a date.
	MaxDate time.Time
	// PaidBefore accumulates amounts matched on or before the cutoff.
	// Partials without a date are counted here conservatively.
	PaidBefore float64
	// PaidAfter accumulates amounts matched strictly after the cutoff.
	PaidAfter float64
}

// resolveReconciliation reads, in one batch, every partial
// reconciliation referenced by the given lines (both match directions)
// and splits each line's matched amounts around the cutoff. The current
// residual already reflects all payments up to now, so adding back only
// the post-cutoff amounts reconstructs the balance as it stood at the
// cutoff.
func (e *Engine) resolveReconciliation(ctx context.Context, lines []LedgerLine, cutoff time.Time) (map[int64]ReconciliationFact, error) {
	union := map[int64]bool{}
	for _, line := range lines {
		for _, id := range line.MatchedDebitIDs {
			union[id] = true
		}
		for _, id := range line.MatchedCreditIDs {
			union[id] = true
		}
	}
	facts := make(map[int64]ReconciliationFact, len(lines))
	if len(union) == 0 {
		return facts, nil
	}

	records, err := e.source.Read(ctx, ledger.EntityPartial, keys(union), partialFields)
	if err != nil {
		return nil, err
	}
	partials := make(map[int64]PartialReconciliation, len(records))
	for _, rec := range records {
		p := partialFromRecord(rec)
		partials[p.ID] = p
	}

	for _, line := range lines {
		fact := ReconciliationFact{}
		for _, id := range partialIDs(line) {
			p, ok := partials[id]
			if !ok {
				continue
			}
			if !p.MaxDate.IsZero() && p.MaxDate.After(fact.MaxDate) {
				fact.MaxDate = p.MaxDate
			}
			if !p.MaxDate.IsZero() && p.MaxDate.After(cutoff) {
				fact.PaidAfter += p.Amount
			} else {
				fact.PaidBefore += p.Amount
			}
		}
		facts[line.ID] = fact
	}
	return facts, nil
}

// partialIDs returns the de-duplicated union of both match directions,
// preserving first-seen order.
func partialIDs(line LedgerLine) []int64 {
	seen := map[int64]bool{}
	out := make([]int64, 0, len(line.MatchedDebitIDs)+len(line.MatchedCreditIDs))
	for _, id := range line.MatchedDebitIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range line.MatchedCreditIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
