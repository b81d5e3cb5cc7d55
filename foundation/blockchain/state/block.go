package state

import (
	"time"

	"github.com/ledgerworks/powchain/foundation/blockchain/database"
)

// NewBlock seals the pending transactions into a new block and appends it
// to the chain. An empty previousHash means the block links to the hash of
// the current last block.
func (s *State) NewBlock(proof int64, previousHash string) database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sealBlock(proof, previousHash)
}

// =============================================================================

// sealBlock drains the mempool into a new block and appends it to the chain.
// The caller must hold the lock, or be the constructor.
func (s *State) sealBlock(proof int64, previousHash string) database.Block {
	var last database.Block
	if n := len(s.chain); n > 0 {
		last = s.chain[n-1]
	}

	if previousHash == "" {
		previousHash = last.Hash()
	}

	// Timestamps never go backwards, even if the clock does.
	timestamp := database.Timestamp(time.Now().UTC())
	if timestamp < last.Timestamp {
		timestamp = last.Timestamp
	}

	block := database.NewBlock(int64(len(s.chain))+1, timestamp, s.mempool.Drain(), proof, previousHash)
	s.chain = append(s.chain, block)

	s.evHandler("state: sealBlock: blk[%d]: numTrans[%d]: prevBlk[%s]", block.Index, len(block.Transactions), block.PreviousHash)

	return copyBlock(block)
}

// copyBlock returns a block that shares no memory with the chain.
func copyBlock(block database.Block) database.Block {
	return database.Copy([]database.Block{block})[0]
}
