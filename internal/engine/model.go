// Package engine reconstructs point-in-time receivable/payable reports
// from line-level records held in a remote ledger: it builds search
// predicates, fetches related entities in parallel, splits the payment
// history of each line around an optional cutoff date, and classifies
// the outstanding balance by overdue age.
package engine

import (
	"time"

	"github.com/quipu-reports/quipu/internal/ledger"
)

// DebtState labels whether a row is past due.
type DebtState string

const (
	DebtCurrent DebtState = "VIGENTE"
	DebtOverdue DebtState = "VENCIDO"
)

// AgingBucket is a named days-overdue band.
type AgingBucket string

const (
	BucketCurrent  AgingBucket = "Vigente"
	BucketShort    AgingBucket = "Atraso Corto (1-30)"
	BucketMedium   AgingBucket = "Atraso Medio (31-60)"
	BucketLong     AgingBucket = "Atraso Prolongado (61-90)"
	BucketJudicial AgingBucket = "Cobranza Judicial (+90)"
)

// AgingBuckets lists the bands in ascending order of age.
var AgingBuckets = []AgingBucket{BucketCurrent, BucketShort, BucketMedium, BucketLong, BucketJudicial}

// ClassifyAging maps non-negative days overdue onto its band. Negative
// input (not yet due) clamps to the current band.
func ClassifyAging(daysOverdue int) AgingBucket {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return BucketShort
	case daysOverdue <= 60:
		return BucketMedium
	case daysOverdue <= 90:
		return BucketLong
	default:
		return BucketJudicial
	}
}

// LedgerLine is one journal entry line, immutable once posted.
type LedgerLine struct {
	ID           int64
	Document     ledger.Ref
	Counterparty ledger.Ref
	Account      ledger.Ref
	Label        string
	Date         time.Time
	Maturity     time.Time
	Debit        float64
	Credit       float64
	// Residual is the unsettled portion in company currency, signed.
	Residual       float64
	AmountCurrency float64
	Currency       ledger.Ref
	Reconciled     bool
	Blocked        bool
	FullReconcile  ledger.Ref
	// Matching reconciliation records, both directions.
	MatchedDebitIDs  []int64
	MatchedCreditIDs []int64
}

// lineFields is the read projection for ledger lines.
var lineFields = []string{
	"id", "move_id", "partner_id", "account_id", "name", "date",
	"date_maturity", "debit", "credit", "amount_currency",
	"amount_residual", "currency_id", "reconciled", "blocked",
	"full_reconcile_id", "matched_debit_ids", "matched_credit_ids",
}

func lineFromRecord(rec ledger.Record) LedgerLine {
	return LedgerLine{
		ID:               rec.ID(),
		Document:         rec.Ref("move_id"),
		Counterparty:     rec.Ref("partner_id"),
		Account:          rec.Ref("account_id"),
		Label:            rec.Str("name"),
		Date:             rec.Date("date"),
		Maturity:         rec.Date("date_maturity"),
		Debit:            rec.Float("debit"),
		Credit:           rec.Float("credit"),
		Residual:         rec.Float("amount_residual"),
		AmountCurrency:   rec.Float("amount_currency"),
		Currency:         rec.Ref("currency_id"),
		Reconciled:       rec.Bool("reconciled"),
		Blocked:          rec.Bool("blocked"),
		FullReconcile:    rec.Ref("full_reconcile_id"),
		MatchedDebitIDs:  rec.IDs("matched_debit_ids"),
		MatchedCreditIDs: rec.IDs("matched_credit_ids"),
	}
}

// Document is the invoice, credit note or journal entry owning a line.
type Document struct {
	ID                    int64
	Number                string
	Reference             string
	Type                  string
	State                 string
	PaymentState          string
	IssueDate             time.Time
	DueDate               time.Time
	Origin                string
	AmountTotal           float64
	AmountResidual        float64
	ResidualWithRetention float64
	TotalSigned           float64
	Currency              ledger.Ref
	DocType               ledger.Ref
	PaymentTerm           ledger.Ref
	Salesperson           ledger.Ref
	Channel               ledger.Ref
}

var documentFields = []string{
	"id", "name", "ref", "move_type", "state", "payment_state",
	"invoice_date", "invoice_date_due", "invoice_origin", "amount_total",
	"amount_residual", "amount_residual_with_retention",
	"amount_total_signed", "currency_id", "l10n_latam_document_type_id",
	"invoice_payment_term_id", "invoice_user_id", "sales_channel_id",
}

func documentFromRecord(rec ledger.Record) Document {
	return Document{
		ID:                    rec.ID(),
		Number:                rec.Str("name"),
		Reference:             rec.Str("ref"),
		Type:                  rec.Str("move_type"),
		State:                 rec.Str("state"),
		PaymentState:          rec.Str("payment_state"),
		IssueDate:             rec.Date("invoice_date"),
		DueDate:               rec.Date("invoice_date_due"),
		Origin:                rec.Str("invoice_origin"),
		AmountTotal:           rec.Float("amount_total"),
		AmountResidual:        rec.Float("amount_residual"),
		ResidualWithRetention: rec.Float("amount_residual_with_retention"),
		TotalSigned:           rec.Float("amount_total_signed"),
		Currency:              rec.Ref("currency_id"),
		DocType:               rec.Ref("l10n_latam_document_type_id"),
		PaymentTerm:           rec.Ref("invoice_payment_term_id"),
		Salesperson:           rec.Ref("invoice_user_id"),
		Channel:               rec.Ref("sales_channel_id"),
	}
}

// Counterparty is the customer or supplier behind a line.
type Counterparty struct {
	ID           int64
	Name         string
	TaxID        string
	CountryCode  string
	Country      ledger.Ref
	State        ledger.Ref
	City         string
	District     string
	Phone        string
	Email        string
	CustomerRank int
	SupplierRank int
	GroupIDs     []int64
	BankIDs      []int64
}

var counterpartyFields = []string{
	"id", "name", "vat", "country_code", "country_id", "state_id",
	"city", "l10n_pe_district", "phone", "email", "customer_rank",
	"supplier_rank", "groups_ids", "bank_ids",
}

func counterpartyFromRecord(rec ledger.Record) Counterparty {
	return Counterparty{
		ID:           rec.ID(),
		Name:         rec.Str("name"),
		TaxID:        rec.Str("vat"),
		CountryCode:  rec.Str("country_code"),
		Country:      rec.Ref("country_id"),
		State:        rec.Ref("state_id"),
		City:         rec.Str("city"),
		District:     rec.Str("l10n_pe_district"),
		Phone:        rec.Str("phone"),
		Email:        rec.Str("email"),
		CustomerRank: int(rec.Int("customer_rank")),
		SupplierRank: int(rec.Int("supplier_rank")),
		GroupIDs:     rec.IDs("groups_ids"),
		BankIDs:      rec.IDs("bank_ids"),
	}
}

// Account is one chart-of-accounts entry.
type Account struct {
	ID   int64
	Code string
	Name string
}

var accountFields = []string{"id", "code", "name"}

func accountFromRecord(rec ledger.Record) Account {
	return Account{ID: rec.ID(), Code: rec.Str("code"), Name: rec.Str("name")}
}

// CreditInfo is the optional credit record carrying the explicit
// sub-channel classification of a counterparty.
type CreditInfo struct {
	CounterpartyID int64
	SubChannel     ledger.Ref
}

// BankAccount is one bank account registered for a counterparty.
type BankAccount struct {
	ID             int64
	CounterpartyID int64
	Number         string
	Bank           ledger.Ref
	Currency       ledger.Ref
	BIC            string
}

// PartialReconciliation links two ledger lines for a matched amount.
// MaxDate is the later of the two matched postings; it may be zero.
type PartialReconciliation struct {
	ID           int64
	Amount       float64
	MaxDate      time.Time
	DebitLineID  int64
	CreditLineID int64
}

var partialFields = []string{"id", "amount", "max_date", "debit_move_id", "credit_move_id"}

func partialFromRecord(rec ledger.Record) PartialReconciliation {
	return PartialReconciliation{
		ID:           rec.ID(),
		Amount:       rec.Float("amount"),
		MaxDate:      rec.Date("max_date"),
		DebitLineID:  rec.Ref("debit_move_id").ID,
		CreditLineID: rec.Ref("credit_move_id").ID,
	}
}

// ReportRow is a fully denormalized report line. It is derived, never
// persisted.
type ReportRow struct {
	LineID         int64  `json:"line_id"`
	DocumentNumber string `json:"document_number"`
	DocumentType   string `json:"document_type"`
	PaymentState   string `json:"payment_state"`
	Reference      string `json:"reference"`
	Origin         string `json:"origin"`
	Label          string `json:"label"`

	AccountCode string `json:"account_code"`
	AccountName string `json:"account_name"`

	CounterpartyID     int64  `json:"counterparty_id"`
	CounterpartyName   string `json:"counterparty_name"`
	TaxID              string `json:"tax_id"`
	CountryCode        string `json:"country_code"`
	CountryName        string `json:"country_name"`
	StateName          string `json:"state_name"`
	District           string `json:"district"`
	CounterpartyGroups string `json:"counterparty_groups"`
	SubChannel         string `json:"sub_channel"`
	SalesChannel       string `json:"sales_channel"`
	Salesperson        string `json:"salesperson"`
	PaymentTerm        string `json:"payment_term"`

	Currency       string  `json:"currency"`
	AmountTotal    float64 `json:"amount_total"`
	AmountCurrency float64 `json:"amount_currency"`
	Debit          float64 `json:"debit"`
	Credit         float64 `json:"credit"`
	// Residual is the absolute current outstanding balance.
	Residual              float64 `json:"amount_residual"`
	ResidualWithRetention float64 `json:"amount_residual_with_retention"`

	PostingDate  string `json:"posting_date"`
	MaturityDate string `json:"maturity_date,omitempty"`
	IssueDate    string `json:"issue_date,omitempty"`
	DueDate      string `json:"due_date,omitempty"`

	DaysOverdue  int         `json:"days_overdue"`
	DebtState    DebtState   `json:"debt_state"`
	AgingBucket  AgingBucket `json:"aging_bucket"`
	LateInterest float64     `json:"late_interest"`
	Reconciled   bool        `json:"reconciled"`

	// Cutoff reconstruction, populated only in historical mode.
	PaidBeforeCutoff   float64 `json:"paid_before_cutoff,omitempty"`
	PaidAfterCutoff    float64 `json:"paid_after_cutoff,omitempty"`
	ReconciliationDate string  `json:"reconciliation_date,omitempty"`
	HistoricalResidual float64 `json:"historical_residual"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
