package engine

import "sort"

// GroupTotals accumulates amounts for one summary group. Saldo is
// always debit minus credit.
type GroupTotals struct {
	Key             string  `json:"key"`
	Name            string  `json:"name,omitempty"`
	Debit           float64 `json:"debit"`
	Credit          float64 `json:"credit"`
	PendingAtCutoff float64 `json:"pending_cutoff"`
	PaidAfterCutoff float64 `json:"paid_after_cutoff"`
	Saldo           float64 `json:"saldo"`
	Count           int     `json:"count"`
}

// Summary is an aggregate rollup of composed rows.
type Summary struct {
	Overall GroupTotals   `json:"overall"`
	Groups  []GroupTotals `json:"groups"`
}

const unknownKey = "N/A"

func summarize(rows []ReportRow, keyOf func(ReportRow) (key, name string)) Summary {
	groups := map[string]*GroupTotals{}
	overall := GroupTotals{Key: "overall"}

	for _, row := range rows {
		key, name := keyOf(row)
		if key == "" {
			key = unknownKey
		}
		grp, ok := groups[key]
		if !ok {
			grp = &GroupTotals{Key: key, Name: name}
			groups[key] = grp
		}
		for _, t := range []*GroupTotals{grp, &overall} {
			t.Debit += row.Debit
			t.Credit += row.Credit
			t.PendingAtCutoff += row.HistoricalResidual
			t.PaidAfterCutoff += row.PaidAfterCutoff
			t.Count++
		}
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := Summary{Overall: overall}
	out.Overall.Saldo = overall.Debit - overall.Credit
	for _, key := range keys {
		grp := *groups[key]
		grp.Saldo = grp.Debit - grp.Credit
		out.Groups = append(out.Groups, grp)
	}
	return out
}

// SummarizeByAccount rolls rows up by account display code.
func SummarizeByAccount(rows []ReportRow) Summary {
	return summarize(rows, func(r ReportRow) (string, string) {
		return r.AccountCode, r.AccountName
	})
}

// SummarizeByCounterparty rolls rows up per customer or supplier.
func SummarizeByCounterparty(rows []ReportRow) Summary {
	return summarize(rows, func(r ReportRow) (string, string) {
		return r.CounterpartyName, r.TaxID
	})
}

// SummarizeByAging rolls rows up per aging band, emitting every band in
// ascending age order even when empty.
func SummarizeByAging(rows []ReportRow) Summary {
	s := summarize(rows, func(r ReportRow) (string, string) {
		return string(r.AgingBucket), ""
	})
	present := map[string]GroupTotals{}
	for _, grp := range s.Groups {
		present[grp.Key] = grp
	}
	ordered := make([]GroupTotals, 0, len(AgingBuckets))
	for _, bucket := range AgingBuckets {
		key := string(bucket)
		grp, ok := present[key]
		if !ok {
			grp = GroupTotals{Key: key}
		}
		ordered = append(ordered, grp)
		delete(present, key)
	}
	// Anything left is an unknown label; keep it rather than drop it.
	for _, grp := range s.Groups {
		if _, known := present[grp.Key]; known {
			ordered = append(ordered, grp)
		}
	}
	s.Groups = ordered
	return s
}
