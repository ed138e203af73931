// Package export serialises composed report rows to download formats.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/quipu-reports/quipu/internal/engine"
)

var rowHeader = []string{
	"Line ID", "Document", "Type", "Payment State", "Reference", "Origin", "Label",
	"Account Code", "Account Name",
	"Counterparty", "Tax ID", "Country", "State", "District", "Groups",
	"Sub Channel", "Sales Channel", "Salesperson", "Payment Term",
	"Currency", "Amount Total", "Amount Currency", "Debit", "Credit",
	"Residual", "Residual With Retention", "Historical Residual",
	"Posting Date", "Maturity Date", "Issue Date", "Due Date",
	"Days Overdue", "Debt State", "Aging Bucket", "Late Interest",
	"Reconciled", "Paid Before Cutoff", "Paid After Cutoff", "Reconciliation Date",
}

// WriteRowsCSV emits the report rows as CSV, header included.
func WriteRowsCSV(w io.Writer, rows []engine.ReportRow) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(rowHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			formatInt(r.LineID), r.DocumentNumber, r.DocumentType, r.PaymentState,
			r.Reference, r.Origin, r.Label,
			r.AccountCode, r.AccountName,
			r.CounterpartyName, r.TaxID, r.CountryName, r.StateName, r.District,
			r.CounterpartyGroups,
			r.SubChannel, r.SalesChannel, r.Salesperson, r.PaymentTerm,
			r.Currency, formatFloat(r.AmountTotal), formatFloat(r.AmountCurrency),
			formatFloat(r.Debit), formatFloat(r.Credit),
			formatFloat(r.Residual), formatFloat(r.ResidualWithRetention),
			formatFloat(r.HistoricalResidual),
			r.PostingDate, r.MaturityDate, r.IssueDate, r.DueDate,
			strconv.Itoa(r.DaysOverdue), string(r.DebtState), string(r.AgingBucket),
			formatFloat(r.LateInterest),
			strconv.FormatBool(r.Reconciled),
			formatFloat(r.PaidBeforeCutoff), formatFloat(r.PaidAfterCutoff),
			r.ReconciliationDate,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
