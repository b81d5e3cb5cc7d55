// Package database defines the blocks and transactions that make up the
// chain and the rules for validating a sequence of blocks.
package database

// ValidateChain walks the chain checking each block against the one before
// it. The first block is taken as is, so empty and single block chains are
// always valid. The first failure found is returned.
func ValidateChain(chain []Block, evHandler func(v string, args ...any)) error {
	if len(chain) < 2 {
		return nil
	}

	lastBlock := chain[0]
	for _, block := range chain[1:] {
		if err := block.ValidateBlock(lastBlock, evHandler); err != nil {
			return err
		}
		lastBlock = block
	}

	return nil
}

// IsValidChain reports whether the chain passes ValidateChain.
func IsValidChain(chain []Block) bool {
	return ValidateChain(chain, func(string, ...any) {}) == nil
}

// Copy returns a copy of the chain that shares no transaction slices
// with the original.
func Copy(chain []Block) []Block {
	cpy := make([]Block, len(chain))
	for i, block := range chain {
		trans := make([]Tx, len(block.Transactions))
		copy(trans, block.Transactions)

		block.Transactions = trans
		cpy[i] = block
	}

	return cpy
}

// ChainData is the form a node uses to hand its full chain to a peer.
type ChainData struct {
	Chain  []Block `json:"chain"`
	Length int64   `json:"length"`
}

// NewChainData constructs the value to send across the network.
func NewChainData(chain []Block) ChainData {
	return ChainData{
		Chain:  chain,
		Length: int64(len(chain)),
	}
}
