// Package netted maintains the locally stored netted treasury
// position: per supplier, the open payables offset against the credits
// the company holds on the same counterparty. The sync job rebuilds it
// from the ledger; the report endpoint serves it from Postgres.
package netted

import "time"

// Position is one supplier's netted standing as of the last sync.
type Position struct {
	SupplierID   int64     `json:"supplier_id"`
	SupplierName string    `json:"supplier_name"`
	TaxID        string    `json:"tax_id"`
	Payable      float64   `json:"payable"`
	Receivable   float64   `json:"receivable"`
	Net          float64   `json:"net"`
	Currency     string    `json:"currency"`
	LineCount    int       `json:"line_count"`
	RunID        string    `json:"run_id"`
	SyncedAt     time.Time `json:"synced_at"`
}

// RunInfo describes one completed sync run.
type RunInfo struct {
	RunID     string    `json:"run_id"`
	SyncedAt  time.Time `json:"synced_at"`
	Suppliers int       `json:"suppliers"`
}
