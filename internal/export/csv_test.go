package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quipu-reports/quipu/internal/engine"
)

func TestWriteRowsCSV(t *testing.T) {
	rows := []engine.ReportRow{
		{
			LineID:             42,
			DocumentNumber:     "F001-123",
			AccountCode:        "1212001",
			CounterpartyName:   "ACME, SAC",
			Debit:              1000,
			Residual:           700.5,
			HistoricalResidual: 700.5,
			DaysOverdue:        15,
			DebtState:          engine.DebtOverdue,
			AgingBucket:        engine.BucketShort,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRowsCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, rowHeader, records[0])

	record := records[1]
	require.Len(t, record, len(rowHeader))
	require.Equal(t, "42", record[0])
	require.Equal(t, "F001-123", record[1])
	require.Equal(t, "ACME, SAC", record[9], "commas must survive quoting")
	require.Equal(t, "1000.00", record[22])
	require.Equal(t, "700.50", record[24])
	require.Equal(t, "VENCIDO", record[32])
}

func TestWriteRowsCSVEmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRowsCSV(&buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
}
