package engine

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultPerPage = 50
	maxPerPage     = 500
)

// Filters carries the report request inputs after validation. The date
// range and the cutoff date are mutually exclusive modes.
type Filters struct {
	StartDate  time.Time
	EndDate    time.Time
	CutoffDate time.Time

	Counterparty string
	AccountCodes string
	ChannelID    int64
	DocTypeID    int64
	PaymentState string
	Reference    string

	HasRetention      bool
	HasOrigin         bool
	OnlyVouchers      bool
	IncludeReconciled bool

	Page    int
	PerPage int
}

// Historical reports whether a cutoff reconstruction was requested.
func (f Filters) Historical() bool { return !f.CutoffDate.IsZero() }

// AsOf is the reference date for overdue-age computations: the cutoff
// when present, otherwise today.
func (f Filters) AsOf(now time.Time) time.Time {
	if f.Historical() {
		return f.CutoffDate
	}
	return now.Truncate(24 * time.Hour)
}

// AccountTokens splits the comma-separated account code list.
func (f Filters) AccountTokens() []string {
	if f.AccountCodes == "" {
		return nil
	}
	parts := strings.Split(f.AccountCodes, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Offset returns the zero-based row offset for the requested page.
func (f Filters) Offset() int { return (f.Page - 1) * f.PerPage }

// reportQuery is the raw query-string shape before validation.
type reportQuery struct {
	DateFrom     string `validate:"omitempty,datetime=2006-01-02"`
	DateTo       string `validate:"omitempty,datetime=2006-01-02"`
	DateCutoff   string `validate:"omitempty,datetime=2006-01-02"`
	PaymentState string `validate:"omitempty,oneof=not_paid in_payment paid partial reversed"`
	Page         int    `validate:"min=1"`
	PerPage      int    `validate:"min=1,max=500"`
}

var validate = validator.New()

// ParseFilters decodes and validates report query parameters. The
// counterparty free-text parameter is accepted under both the
// receivables ("customer") and payables ("supplier") names.
func ParseFilters(q url.Values) (Filters, error) {
	f := Filters{
		Counterparty: strings.TrimSpace(firstOf(q, "customer", "supplier", "counterparty")),
		AccountCodes: q.Get("account_codes"),
		PaymentState: q.Get("payment_state"),
		Reference:    strings.TrimSpace(q.Get("reference")),

		HasRetention:      q.Get("has_retention") == "true",
		HasOrigin:         q.Get("has_origin") == "true",
		OnlyVouchers:      q.Get("only_vouchers") == "true",
		IncludeReconciled: q.Get("include_reconciled") == "true",

		Page:    intParam(q, "page", 1),
		PerPage: intParam(q, "per_page", defaultPerPage),
	}
	f.ChannelID = int64(intParam(q, "sales_channel_id", 0))
	f.DocTypeID = int64(intParam(q, "doc_type_id", 0))

	raw := reportQuery{
		DateFrom:     q.Get("date_from"),
		DateTo:       q.Get("date_to"),
		DateCutoff:   q.Get("date_cutoff"),
		PaymentState: f.PaymentState,
		Page:         f.Page,
		PerPage:      f.PerPage,
	}
	if err := validate.Struct(raw); err != nil {
		return Filters{}, fmt.Errorf("invalid report query: %w", err)
	}
	if raw.DateCutoff != "" && (raw.DateFrom != "" || raw.DateTo != "") {
		return Filters{}, fmt.Errorf("date_cutoff is mutually exclusive with date_from/date_to")
	}

	f.StartDate = parseDate(raw.DateFrom)
	f.EndDate = parseDate(raw.DateTo)
	f.CutoffDate = parseDate(raw.DateCutoff)
	if f.PerPage > maxPerPage {
		f.PerPage = maxPerPage
	}
	return f, nil
}

func firstOf(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func intParam(q url.Values, key string, def int) int {
	raw := q.Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse("2006-01-02", s)
	return t
}

// Echo returns the applied filters in the response envelope shape.
func (f Filters) Echo() map[string]any {
	return map[string]any{
		"date_from":          formatDate(f.StartDate),
		"date_to":            formatDate(f.EndDate),
		"date_cutoff":        formatDate(f.CutoffDate),
		"counterparty":       f.Counterparty,
		"account_codes":      f.AccountCodes,
		"sales_channel_id":   f.ChannelID,
		"doc_type_id":        f.DocTypeID,
		"payment_state":      f.PaymentState,
		"reference":          f.Reference,
		"has_retention":      f.HasRetention,
		"has_origin":         f.HasOrigin,
		"only_vouchers":      f.OnlyVouchers,
		"include_reconciled": f.IncludeReconciled,
		"page":               f.Page,
		"per_page":           f.PerPage,
	}
}
