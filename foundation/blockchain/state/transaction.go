package state

import "github.com/ledgerworks/powchain/foundation/blockchain/database"

// NewTransaction adds a transaction to the mempool and returns the index
// of the block it will be sealed into.
func (s *State) NewTransaction(tx database.Tx) int64 {
	var index int64

	s.mu.Lock()
	{
		n := s.mempool.Add(tx)
		s.evHandler("state: NewTransaction: tx[%s]: pending[%d]", tx, n)

		index = s.chain[len(s.chain)-1].Index + 1
	}
	s.mu.Unlock()

	s.signalStartMining()

	return index
}
