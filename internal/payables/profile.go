// Package payables exposes the treasury report: open supplier
// obligations with bank payment details, aging-classified, plus the
// netted position per supplier.
package payables

import "github.com/quipu-reports/quipu/internal/engine"

// NewProfile returns the payables family profile. Defaults cover the
// trade payable classes of the local chart. Bank lookups are on because
// treasury pays from this report.
func NewProfile(homeCountry string) engine.Profile {
	return engine.Profile{
		Name:                "payables",
		DocumentTypes:       []string{"in_invoice", "in_refund", "entry"},
		VoucherTypes:        []string{"in_invoice", "in_refund"},
		DefaultAccountCodes: []string{"42", "421", "422", "423", "43", "431", "432"},
		FetchBanks:          true,
		HomeCountry:         homeCountry,
	}
}
