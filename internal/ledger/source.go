package ledger

import "context"

// Entity names as exposed by the remote ledger.
const (
	EntityLine          = "account.move.line"
	EntityDocument      = "account.move"
	EntityCounterparty  = "res.partner"
	EntityAccount       = "account.account"
	EntityPartial       = "account.partial.reconcile"
	EntityCredit        = "agr.credit.customer"
	EntityGroup         = "agr.groups"
	EntityBankAccount   = "res.partner.bank"
	EntityBank          = "res.bank"
	EntityChannel       = "sales.channel"
	EntityDocumentType  = "l10n_latam.document.type"
)

// SearchOptions narrows a SearchRead call.
type SearchOptions struct {
	Limit  int
	Offset int
	Order  string
}

// Source is the read contract this engine consumes from the ledger
// system. Implementations own connectivity; the engine never mutates
// remote state.
type Source interface {
	// Count returns the number of records matching the domain.
	Count(ctx context.Context, entity string, domain *Domain) (int, error)
	// Read fetches specific records by id.
	Read(ctx context.Context, entity string, ids []int64, fields []string) ([]Record, error)
	// SearchRead searches and reads in one round trip.
	SearchRead(ctx context.Context, entity string, domain *Domain, fields []string, opts SearchOptions) ([]Record, error)
	// ReadGroup runs a grouped aggregation on the remote, used as the
	// fast path for summaries that need no per-row reconstruction.
	ReadGroup(ctx context.Context, entity string, domain *Domain, aggFields, groupBy []string) ([]Record, error)
}
