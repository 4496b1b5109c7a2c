package enums

import "fmt"

// TransactionKind names the wallet funding direction of a transaction.
type TransactionKind string

const (
	TransactionKindDeposit  TransactionKind = "deposit"
	TransactionKindWithdraw TransactionKind = "withdraw"
)

var validTransactionKinds = []TransactionKind{
	TransactionKindDeposit,
	TransactionKindWithdraw,
}

// String implements fmt.Stringer.
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is known.
func (k TransactionKind) IsValid() bool {
	for _, candidate := range validTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// EntryType returns the ledger entry direction derived from the kind.
func (k TransactionKind) EntryType() TransactionEntryType {
	if k == TransactionKindWithdraw {
		return TransactionEntryDebit
	}
	return TransactionEntryCredit
}

// ParseTransactionKind converts raw input into a TransactionKind.
func ParseTransactionKind(value string) (TransactionKind, error) {
	for _, candidate := range validTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction kind %q", value)
}
