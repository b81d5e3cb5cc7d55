// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"
	"time"

	"github.com/ledgerworks/powchain/foundation/blockchain/database"
	"github.com/ledgerworks/powchain/foundation/blockchain/genesis"
	"github.com/ledgerworks/powchain/foundation/blockchain/mempool"
	"github.com/ledgerworks/powchain/foundation/blockchain/peer"
)

// defaultFetchTimeout is the amount of time a single peer has to hand over
// its chain when no fetcher is configured.
const defaultFetchTimeout = 5 * time.Second

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and conflict resolution.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	NodeID     string
	Host       string
	Genesis    genesis.Genesis
	KnownPeers *peer.PeerSet
	Fetcher    ChainFetcher
	EvHandler  EventHandler
}

// State manages the chain and the pending transactions. A single mutex
// guards both so a seal and a chain replacement can never interleave.
type State struct {
	mu sync.Mutex

	nodeID    string
	host      string
	evHandler EventHandler

	genesis    genesis.Genesis
	chain      []database.Block
	mempool    *mempool.Mempool
	knownPeers *peer.PeerSet
	fetcher    ChainFetcher

	Worker Worker
}

// New constructs a new blockchain node and seals the genesis block.
func New(cfg Config) (*State, error) {
	if cfg.NodeID == "" {
		return nil, errors.New("node id is required")
	}

	if cfg.Genesis.PreviousHash == "" {
		return nil, errors.New("genesis previous hash is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(defaultFetchTimeout)
	}

	state := State{
		nodeID:    cfg.NodeID,
		host:      cfg.Host,
		evHandler: ev,

		genesis:    cfg.Genesis,
		mempool:    mempool.New(),
		knownPeers: knownPeers,
		fetcher:    fetcher,
	}

	// The chain is never empty after this point.
	genesisBlock := state.sealBlock(cfg.Genesis.Proof, cfg.Genesis.PreviousHash)
	ev("state: New: genesis block sealed: blk[%d]: hash[%s]", genesisBlock.Index, genesisBlock.Hash())

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// =============================================================================

// signalStartMining lets the worker know there is something to mine.
func (s *State) signalStartMining() {
	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}
}

// signalCancelMining lets the worker know any in flight mining is moot.
func (s *State) signalCancelMining() {
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}
}
