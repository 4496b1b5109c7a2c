package enums

import "fmt"

// TransactionEntryType marks a transaction as a wallet credit or debit.
// It is derived from the kind and stored for display/reporting.
type TransactionEntryType string

const (
	TransactionEntryCredit TransactionEntryType = "credit"
	TransactionEntryDebit  TransactionEntryType = "debit"
)

var validTransactionEntryTypes = []TransactionEntryType{
	TransactionEntryCredit,
	TransactionEntryDebit,
}

// String implements fmt.Stringer.
func (t TransactionEntryType) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t TransactionEntryType) IsValid() bool {
	for _, candidate := range validTransactionEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionEntryType converts raw input into a TransactionEntryType.
func ParseTransactionEntryType(value string) (TransactionEntryType, error) {
	for _, candidate := range validTransactionEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction entry type %q", value)
}
