// Package receivables exposes the customer collections report: every
// open (or historically open) receivable line, aging-classified, with
// counterparty and credit enrichment.
package receivables

import "github.com/quipu-reports/quipu/internal/engine"

// NewProfile returns the receivables family profile. Account defaults
// cover the trade receivable classes of the local chart; 1239001 is a
// write-off account that only appears when asked for by exact code.
func NewProfile(homeCountry string) engine.Profile {
	return engine.Profile{
		Name:                 "receivables",
		DocumentTypes:        []string{"out_invoice", "out_refund", "entry"},
		VoucherTypes:         []string{"out_invoice", "out_refund"},
		DefaultAccountCodes:  []string{"122", "1212", "123", "1312", "132"},
		ExcludedAccountCodes: []string{"1239001"},
		FetchChannels:        true,
		HomeCountry:          homeCountry,
	}
}
