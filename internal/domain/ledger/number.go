package ledger

import "fmt"

// Document number prefixes per ledger kind
const (
	PrefixPayable    = "AP"
	PrefixReceivable = "AR"
	PrefixInvoice    = "INV"
)

// NumberPrefix returns the document number prefix for a ledger kind
func NumberPrefix(kind Kind) string {
	if kind == KindReceivable {
		return PrefixReceivable
	}
	return PrefixPayable
}

// FormatDocumentNumber renders the persisted number format
// {PREFIX}-{yyyy}-{6-digit sequence}. Sequences come from an atomically
// incremented per-(prefix, year) counter, not from counting rows.
func FormatDocumentNumber(prefix string, year int, sequence int64) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, sequence)
}
