package engine

// Profile parameterizes the shared engine for one report family. The
// receivables and payables services differ only in document-type
// families, default account scopes and which related entities matter.
type Profile struct {
	// Name tags logs and metrics, e.g. "receivables".
	Name string

	// DocumentTypes is the allowed document-type family, manual journal
	// entries included. VoucherTypes is the narrowed family applied when
	// only_vouchers is requested.
	DocumentTypes []string
	VoucherTypes  []string

	// DefaultAccountCodes scope the report when the caller supplies no
	// account token.
	DefaultAccountCodes []string

	// ExcludedAccountCodes are always excluded unless a request token
	// names one of them exactly.
	ExcludedAccountCodes []string

	// FetchBanks enables the counterparty bank account lookups.
	FetchBanks bool

	// FetchChannels enables the sales channel dropdown in filter options.
	FetchChannels bool

	// HomeCountry is the ISO country code treated as domestic by the
	// sub-channel fallback and the channel nationality heuristic.
	HomeCountry string
}

func (p Profile) homeCountry() string {
	if p.HomeCountry == "" {
		return "PE"
	}
	return p.HomeCountry
}

func (p Profile) documentTypes(onlyVouchers bool) []string {
	if onlyVouchers && len(p.VoucherTypes) > 0 {
		return p.VoucherTypes
	}
	return p.DocumentTypes
}
