package nodegrp

import "github.com/ledgerworks/powchain/foundation/blockchain/database"

// newTx is the payload for submitting a transaction. Every field is a
// pointer so a missing field can be told apart from an empty string or a
// zero amount, which are accepted.
type newTx struct {
	Sender    *string  `json:"sender" validate:"required"`
	Recipient *string  `json:"recipient" validate:"required"`
	Amount    *float64 `json:"amount" validate:"required"`
}

type txAdded struct {
	Message string `json:"message"`
	Index   int64  `json:"index"`
}

type blockMined struct {
	Message      string        `json:"message"`
	Index        int64         `json:"index"`
	Transactions []database.Tx `json:"transactions"`
	Proof        int64         `json:"proof"`
	PreviousHash string        `json:"previous_hash"`
	Timestamp    float64       `json:"timestamp"`
}

// newNodes is the payload for registering peers.
type newNodes struct {
	Nodes []string `json:"nodes" validate:"required,min=1,dive,required"`
}

type nodesAdded struct {
	Message    string   `json:"message"`
	TotalNodes []string `json:"total_nodes"`
}

type resolved struct {
	Message  string           `json:"message"`
	Replaced bool             `json:"replaced"`
	Chain    []database.Block `json:"chain"`
}

type pending struct {
	Transactions []database.Tx `json:"transactions"`
	Count        int           `json:"count"`
}
