package database

import (
	"fmt"

	"github.com/ledgerworks/powchain/foundation/blockchain/hasher"
)

// Tx is the transactional information between two parties. There is no
// identity or signature behind the sender, any pair of strings is accepted.
type Tx struct {
	Sender    string  `json:"sender"`    // Party the value is moving from.
	Recipient string  `json:"recipient"` // Party receiving the value.
	Amount    float64 `json:"amount"`    // Value moved by this transaction.
}

// NewTx constructs a new transaction.
func NewTx(sender string, recipient string, amount float64) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
}

// Canonical implements the hasher.Canonicaler interface.
func (tx Tx) Canonical() hasher.Object {
	return hasher.Object{
		"sender":    tx.Sender,
		"recipient": tx.Recipient,
		"amount":    tx.Amount,
	}
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%v", tx.Sender, tx.Recipient, tx.Amount)
}
