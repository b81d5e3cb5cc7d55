package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ledgerworks/powchain/foundation/blockchain/hasher"
	"github.com/ledgerworks/powchain/foundation/blockchain/pow"
)

// Set of errors returned when a block doesn't link to its parent.
var (
	ErrPreviousHash = errors.New("previous hash doesn't match parent block")
	ErrInvalidProof = errors.New("proof doesn't solve the parent's puzzle")
)

// =============================================================================

// Block represents a group of transactions sealed together with a proof of
// work and a link to the block before it.
type Block struct {
	Index        int64   `json:"index"`         // Position of the block in the chain, genesis is 1.
	Timestamp    float64 `json:"timestamp"`     // Seconds since the epoch the block was sealed.
	Transactions []Tx    `json:"transactions"`  // Transactions drained from the pending pool.
	Proof        int64   `json:"proof"`         // Value that solves the parent's proof of work puzzle.
	PreviousHash string  `json:"previous_hash"` // Canonical hash of the parent block.
}

// NewBlock constructs a block from its parts. A nil transaction list is
// recorded as an empty list so the block always encodes the same way.
func NewBlock(index int64, timestamp float64, trans []Tx, proof int64, previousHash string) Block {
	if trans == nil {
		trans = []Tx{}
	}

	return Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: trans,
		Proof:        proof,
		PreviousHash: previousHash,
	}
}

// Canonical implements the hasher.Canonicaler interface.
func (b Block) Canonical() hasher.Object {
	trans := make([]any, len(b.Transactions))
	for i, tx := range b.Transactions {
		trans[i] = tx
	}

	return hasher.Object{
		"index":         b.Index,
		"timestamp":     b.Timestamp,
		"transactions":  trans,
		"proof":         b.Proof,
		"previous_hash": b.PreviousHash,
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return hasher.Hash(b)
}

// ValidateBlock checks the block is a proper child of the previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Index)

	if hash := previousBlock.Hash(); b.PreviousHash != hash {
		return fmt.Errorf("blk[%d]: got %s, exp %s: %w", b.Index, b.PreviousHash, hash, ErrPreviousHash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block proof has been solved", b.Index)

	if !pow.Verify(previousBlock.Proof, b.Proof) {
		return fmt.Errorf("blk[%d]: last proof %d, proof %d: %w", b.Index, previousBlock.Proof, b.Proof, ErrInvalidProof)
	}

	return nil
}

// =============================================================================

// Timestamp converts a time value into the fractional seconds form
// recorded in a block.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
