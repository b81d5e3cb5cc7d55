package state

import (
	"github.com/ledgerworks/powchain/foundation/blockchain/peer"
)

// RegisterNode parses the address and adds the peer it names to the set
// of known peers. Registering the same peer twice has no effect.
func (s *State) RegisterNode(address string) (peer.Peer, error) {
	pr, err := peer.ParseAddress(address)
	if err != nil {
		return peer.Peer{}, err
	}

	if s.AddKnownPeer(pr) {
		s.evHandler("state: RegisterNode: adding peer-node %s", pr)
	}

	return pr, nil
}

// AddKnownPeer provides the ability to add a new peer.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	return s.knownPeers.Add(peer)
}

// RemoveKnownPeer provides the ability to remove a peer.
func (s *State) RemoveKnownPeer(peer peer.Peer) {
	s.knownPeers.Remove(peer)
}
