package peer_test

import (
	"errors"
	"testing"

	"github.com/ledgerworks/powchain/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host3"}, {Host: "host1"}, {Host: "host2"}},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, peer := range tst.peers {
				if !ps.Add(peer) {
					t.Fatalf("Test %s:\tShould be able to add a new peer.", tst.name)
				}
			}

			if ps.Add(tst.peers[0]) {
				t.Fatalf("Test %s:\tShould not add a duplicate peer.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			for i := 1; i < len(peers); i++ {
				if peers[i-1].Host > peers[i].Host {
					t.Fatalf("Test %s:\tShould get back the peers in sorted order: %v", tst.name, peers)
				}
			}

			peers = ps.Copy("host2")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			ps.Remove(peer.New("host1"))
			if ps.Count() != len(tst.peers)-1 {
				t.Fatalf("Test %s:\tShould be able to remove a peer.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_ParseAddress(t *testing.T) {
	type table struct {
		name    string
		address string
		host    string
		err     error
	}

	tt := []table{
		{name: "url", address: "http://192.168.0.5:5000", host: "192.168.0.5:5000"},
		{name: "path", address: "http://node1:5001/chain?x=1", host: "node1:5001"},
		{name: "https", address: "https://example.com", host: "example.com"},
		{name: "bare", address: "127.0.0.1:5002", host: "127.0.0.1:5002"},
		{name: "empty", address: "", err: peer.ErrInvalidAddress},
		{name: "nohost", address: "http:///chain", err: peer.ErrInvalidAddress},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			pr, err := peer.ParseAddress(tst.address)
			if tst.err != nil {
				if !errors.Is(err, tst.err) {
					t.Logf("Test %s:\tgot: %v", tst.name, err)
					t.Logf("Test %s:\texp: %v", tst.name, tst.err)
					t.Fatalf("Test %s:\tShould reject the address.", tst.name)
				}
				return
			}

			if err != nil {
				t.Fatalf("Test %s:\tShould be able to parse the address: %v", tst.name, err)
			}

			if pr.Host != tst.host {
				t.Logf("Test %s:\tgot: %s", tst.name, pr.Host)
				t.Logf("Test %s:\texp: %s", tst.name, tst.host)
				t.Fatalf("Test %s:\tShould get back the host:port authority.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}
