package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/quipu-reports/quipu/internal/ledger"
)

// exactTokenDigits is the threshold above which a purely numeric account
// token is treated as a fully qualified leaf code and matched exactly
// rather than as a prefix.
const exactTokenDigits = 6

// BuildDomain translates report filters into a search predicate for
// ledger lines. It never fails: contradictory input degrades to a
// maximally restrictive predicate.
//
// channelName is the display name of the requested sales channel, empty
// when no channel filter applies; it drives the nationality heuristic.
func BuildDomain(f Filters, p Profile, channelName string) *ledger.Domain {
	d := &ledger.Domain{}

	tokens := f.AccountTokens()
	if len(tokens) == 0 {
		tokens = p.DefaultAccountCodes
	}
	if len(tokens) == 0 {
		// No usable account scope: match nothing rather than everything.
		return d.And("id", "=", 0)
	}

	conds := make([][]any, 0, len(tokens))
	for _, tok := range tokens {
		if isExactToken(tok) {
			conds = append(conds, ledger.Cond("account_id.code", "=", tok))
		} else {
			conds = append(conds, ledger.Cond("account_id.code", "=like", tok+"%"))
		}
	}
	d.AnyOf(conds...)

	d.And("parent_state", "=", "posted")
	d.And("move_id.move_type", "in", p.documentTypes(f.OnlyVouchers))

	for _, code := range p.ExcludedAccountCodes {
		if !containsToken(tokens, code) {
			d.And("account_id.code", "!=", code)
		}
	}

	if f.Historical() {
		// Historical mode fetches lines that are reconciled now but may
		// have been open at the cutoff; the live flag is filtered
		// post-hoc after the reconciliation history is resolved.
		d.And("date", "<=", formatDate(f.CutoffDate))
	} else {
		if !f.IncludeReconciled {
			d.And("reconciled", "=", false)
		}
		if !f.StartDate.IsZero() {
			d.And("date", ">=", formatDate(f.StartDate))
		}
		if !f.EndDate.IsZero() {
			d.And("date", "<=", formatDate(f.EndDate))
		}
	}

	if f.Counterparty != "" {
		d.And("partner_id.name", "ilike", f.Counterparty)
	}
	if f.ChannelID != 0 {
		d.And("move_id.sales_channel_id", "=", f.ChannelID)
	}
	if f.DocTypeID != 0 {
		d.And("move_id.l10n_latam_document_type_id", "=", f.DocTypeID)
	}
	if f.PaymentState != "" {
		d.And("move_id.payment_state", "=", f.PaymentState)
	}
	if f.Reference != "" {
		d.And("move_id.ref", "ilike", f.Reference)
	}
	if f.HasRetention {
		d.And("move_id.amount_residual_with_retention", ">", 0)
	}
	if f.HasOrigin {
		d.And("move_id.invoice_origin", "!=", false)
	}

	// Business naming convention: channels labelled INTERNACIONAL carry
	// only foreign counterparties, NACIONAL only domestic ones. Kept as
	// a string heuristic until the channel entity grows an explicit
	// nationality flag.
	if f.ChannelID != 0 && f.DocTypeID == 0 && channelName != "" {
		switch channelScope(channelName) {
		case scopeInternational:
			d.And("partner_id.country_code", "!=", p.homeCountry())
		case scopeNational:
			d.And("partner_id.country_code", "=", p.homeCountry())
		}
	}

	return d
}

func isExactToken(tok string) bool {
	if len(tok) < exactTokenDigits {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsToken(tokens []string, code string) bool {
	for _, t := range tokens {
		if t == code {
			return true
		}
	}
	return false
}

type scope int

const (
	scopeAny scope = iota
	scopeNational
	scopeInternational
)

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// channelScope classifies a channel display name. Matching is case and
// accent insensitive so "Venta Internacional" and "VENTA INTERNACIONAL"
// behave the same.
func channelScope(name string) scope {
	folded, _, err := transform.String(foldMarks, name)
	if err != nil {
		folded = name
	}
	upper := strings.ToUpper(folded)
	if strings.Contains(upper, "INTERNACIONAL") {
		return scopeInternational
	}
	if strings.Contains(upper, "NACIONAL") {
		return scopeNational
	}
	return scopeAny
}
