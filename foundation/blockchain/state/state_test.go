package state_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ledgerworks/powchain/foundation/blockchain/database"
	"github.com/ledgerworks/powchain/foundation/blockchain/genesis"
	"github.com/ledgerworks/powchain/foundation/blockchain/peer"
	"github.com/ledgerworks/powchain/foundation/blockchain/pow"
	"github.com/ledgerworks/powchain/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const nodeID = "5f1c0e0a9b0d4c7e8f2a6b3d1e4c9a70"

func ifErrFailNow(t *testing.T, err error) {
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func noopEv(v string, args ...any) {}

// =============================================================================

type reply struct {
	data database.ChainData
	err  error
}

// fakeFetcher hands back canned replies keyed by peer host.
type fakeFetcher map[string]reply

func (f fakeFetcher) FetchChain(ctx context.Context, pr peer.Peer) (database.ChainData, error) {
	r, exists := f[pr.Host]
	if !exists {
		return database.ChainData{}, fmt.Errorf("unknown peer %s", pr)
	}
	return r.data, r.err
}

func newState(t *testing.T, fetcher state.ChainFetcher) *state.State {
	st, err := state.New(state.Config{
		NodeID:    nodeID,
		Host:      "localhost:5000",
		Genesis:   genesis.Default(),
		Fetcher:   fetcher,
		EvHandler: noopEv,
	})
	ifErrFailNow(t, err)

	return st
}

// validChain builds a valid chain of the specified length, marking every
// block with the tag so chains can be told apart.
func validChain(t *testing.T, length int, tag string) []database.Block {
	chain := []database.Block{database.NewBlock(1, 1700000000, nil, 0, "1")}

	for len(chain) < length {
		last := chain[len(chain)-1]

		proof, err := pow.Solve(context.Background(), last.Proof, noopEv)
		ifErrFailNow(t, err)

		trans := []database.Tx{database.NewTx("0", tag, 1)}
		chain = append(chain, database.NewBlock(last.Index+1, last.Timestamp+1, trans, proof, last.Hash()))
	}

	return chain
}

// invalidChain builds a chain of the specified length with a broken link.
func invalidChain(t *testing.T, length int) []database.Block {
	chain := validChain(t, length, "forger")
	chain[length-1].PreviousHash = chain[0].Hash()

	return chain
}

func sameChain(a []database.Block, b []database.Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Hash() != b[i].Hash() {
			return false
		}
	}
	return true
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	st := newState(t, fakeFetcher{})

	t.Log("Given the need to start a ledger with a genesis block.")
	{
		latest := st.LatestBlock()
		if latest.Proof != 0 || latest.Index != 1 || latest.PreviousHash != "1" {
			t.Logf("\t%s\tgot: %+v", failed, latest)
			t.Fatalf("\t%s\tShould get back the genesis block.", failed)
		}
		t.Logf("\t%s\tShould get back the genesis block.", success)

		chain := st.RetrieveChain()
		if len(chain) != 1 || !database.IsValidChain(chain) {
			t.Fatalf("\t%s\tShould have a valid genesis only chain.", failed)
		}
		t.Logf("\t%s\tShould have a valid genesis only chain.", success)

		if _, err := state.New(state.Config{Genesis: genesis.Default()}); err == nil {
			t.Fatalf("\t%s\tShould require a node id.", failed)
		}
		t.Logf("\t%s\tShould require a node id.", success)
	}
}

func Test_MineBlock(t *testing.T) {
	st := newState(t, fakeFetcher{})

	t.Log("Given the need to mine pending transactions into a block.")
	{
		for _, tx := range []database.Tx{database.NewTx("A", "B", 10), database.NewTx("C", "D", 5)} {
			if index := st.NewTransaction(tx); index != 2 {
				t.Logf("\t%s\tgot: %d", failed, index)
				t.Logf("\t%s\texp: %d", failed, 2)
				t.Fatalf("\t%s\tShould get back the index of the next block.", failed)
			}
		}
		t.Logf("\t%s\tShould get back the index of the next block.", success)

		block, err := st.MineNewBlock(context.Background())
		ifErrFailNow(t, err)
		t.Logf("\t%s\tShould be able to mine a block.", success)

		exp := []database.Tx{
			database.NewTx("A", "B", 10),
			database.NewTx("C", "D", 5),
			database.NewTx("0", nodeID, 1),
		}
		if len(block.Transactions) != len(exp) {
			t.Fatalf("\t%s\tShould seal every pending transaction plus the reward: %v", failed, block.Transactions)
		}
		for i := range exp {
			if block.Transactions[i] != exp[i] {
				t.Logf("\t%s\tgot: %s", failed, block.Transactions[i])
				t.Logf("\t%s\texp: %s", failed, exp[i])
				t.Fatalf("\t%s\tShould seal the transactions in order.", failed)
			}
		}
		t.Logf("\t%s\tShould seal the transactions in order.", success)

		if n := st.QueryMempoolLength(); n != 0 {
			t.Fatalf("\t%s\tShould drain the mempool: %d left.", failed, n)
		}
		t.Logf("\t%s\tShould drain the mempool.", success)

		chain := st.RetrieveChain()
		if len(chain) != 2 || block.Index != 2 || block.PreviousHash != chain[0].Hash() {
			t.Fatalf("\t%s\tShould append a block linked to genesis.", failed)
		}
		if !pow.Verify(chain[0].Proof, block.Proof) || !database.IsValidChain(chain) {
			t.Fatalf("\t%s\tShould produce a valid chain.", failed)
		}
		t.Logf("\t%s\tShould produce a valid chain.", success)

		if block.Timestamp < chain[0].Timestamp {
			t.Fatalf("\t%s\tShould never move the timestamp backwards.", failed)
		}
		t.Logf("\t%s\tShould never move the timestamp backwards.", success)
	}
}

func Test_MineCancelled(t *testing.T) {
	st := newState(t, fakeFetcher{})
	st.NewTransaction(database.NewTx("A", "B", 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	t.Log("Given the need to abandon mining.")
	{
		_, err := st.MineNewBlock(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Logf("\t%s\tgot: %v", failed, err)
			t.Fatalf("\t%s\tShould get back a cancelled error.", failed)
		}
		t.Logf("\t%s\tShould get back a cancelled error.", success)

		if len(st.RetrieveChain()) != 1 || st.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould leave the chain and mempool untouched.", failed)
		}
		t.Logf("\t%s\tShould leave the chain and mempool untouched.", success)
	}
}

func Test_NewBlock(t *testing.T) {
	st := newState(t, fakeFetcher{})
	genesisBlock := st.LatestBlock()

	st.NewTransaction(database.NewTx("A", "B", 1))

	t.Log("Given the need to seal blocks directly.")
	{
		block := st.NewBlock(99, "")
		if block.PreviousHash != genesisBlock.Hash() {
			t.Fatalf("\t%s\tShould link to the last block by default.", failed)
		}
		if len(block.Transactions) != 1 || st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould drain the pending transactions.", failed)
		}
		t.Logf("\t%s\tShould link to the last block by default.", success)

		block = st.NewBlock(100, "explicit")
		if block.PreviousHash != "explicit" || block.Index != 3 || len(block.Transactions) != 0 {
			t.Logf("\t%s\tgot: %+v", failed, block)
			t.Fatalf("\t%s\tShould use the supplied previous hash.", failed)
		}
		t.Logf("\t%s\tShould use the supplied previous hash.", success)

		block.Transactions = append(block.Transactions, database.NewTx("X", "Y", 1))
		if len(st.LatestBlock().Transactions) != 0 {
			t.Fatalf("\t%s\tShould not let callers change a sealed block.", failed)
		}
		t.Logf("\t%s\tShould not let callers change a sealed block.", success)
	}
}

func Test_RegisterNode(t *testing.T) {
	st := newState(t, fakeFetcher{})

	for _, address := range []string{"http://10.0.0.1:5000", "http://10.0.0.1:5000/chain", "10.0.0.2:5000"} {
		if _, err := st.RegisterNode(address); err != nil {
			t.Fatalf("Should be able to register %s: %v", address, err)
		}
	}

	if _, err := st.RegisterNode(""); !errors.Is(err, peer.ErrInvalidAddress) {
		t.Fatalf("Should reject an empty address: %v", err)
	}

	peers := st.RetrieveKnownPeers()
	if len(peers) != 2 || peers[0].Host != "10.0.0.1:5000" || peers[1].Host != "10.0.0.2:5000" {
		t.Logf("got: %v", peers)
		t.Fatalf("Should register each authority once.")
	}
}

// =============================================================================

func Test_ResolveConflicts(t *testing.T) {
	type table struct {
		name     string
		peers    fakeFetcher
		replaced bool
		exp      string
	}

	three := validChain(t, 3, "peer3")
	four := validChain(t, 4, "peer4")

	tt := []table{
		{
			name: "longer-valid-beats-longer-invalid",
			peers: fakeFetcher{
				"peer1:5000": {data: database.NewChainData(three)},
				"peer2:5000": {data: database.NewChainData(invalidChain(t, 5))},
			},
			replaced: true,
			exp:      "three",
		},
		{
			name: "timeout-and-equal",
			peers: fakeFetcher{
				"peer1:5000": {err: context.DeadlineExceeded},
				"peer2:5000": {data: database.NewChainData(validChain(t, 2, "peer2"))},
			},
			replaced: false,
			exp:      "local",
		},
		{
			name: "shorter",
			peers: fakeFetcher{
				"peer1:5000": {data: database.NewChainData(validChain(t, 1, "peer1"))},
			},
			replaced: false,
			exp:      "local",
		},
		{
			name: "longest-first",
			peers: fakeFetcher{
				"peer1:5000": {data: database.NewChainData(four)},
				"peer2:5000": {data: database.NewChainData(three)},
			},
			replaced: true,
			exp:      "four",
		},
		{
			name: "longest-last",
			peers: fakeFetcher{
				"peer1:5000": {data: database.NewChainData(three)},
				"peer2:5000": {data: database.NewChainData(four)},
			},
			replaced: true,
			exp:      "four",
		},
		{
			name: "length-lie",
			peers: fakeFetcher{
				"peer1:5000": {data: database.ChainData{Chain: three[:1], Length: 9}},
			},
			replaced: false,
			exp:      "local",
		},
		{
			name:     "no-peers",
			peers:    fakeFetcher{},
			replaced: false,
			exp:      "local",
		},
	}

	t.Log("Given the need to resolve conflicts with peers.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				st := newState(t, tst.peers)
				for host := range tst.peers {
					st.AddKnownPeer(peer.New(host))
				}

				// Bring the local chain to a length of two.
				_, err := st.MineNewBlock(context.Background())
				ifErrFailNow(t, err)
				local := st.RetrieveChain()

				replaced, err := st.ResolveConflicts(context.Background())
				ifErrFailNow(t, err)

				if replaced != tst.replaced {
					t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, replaced)
					t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.replaced)
					t.Fatalf("\t%s\tTest %d:\tShould report the right outcome.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould report the right outcome.", success, testID)

				exp := map[string][]database.Block{"local": local, "three": three, "four": four}[tst.exp]
				if !sameChain(st.RetrieveChain(), exp) {
					t.Fatalf("\t%s\tTest %d:\tShould end with the %s chain.", failed, testID, tst.exp)
				}
				t.Logf("\t%s\tTest %d:\tShould end with the %s chain.", success, testID, tst.exp)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ResolveConflictsHTTP(t *testing.T) {
	peerChain := validChain(t, 3, "remote")

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chain" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(database.NewChainData(peerChain))
	}))
	defer good.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer broken.Close()

	st, err := state.New(state.Config{
		NodeID:    nodeID,
		Genesis:   genesis.Default(),
		EvHandler: noopEv,
	})
	ifErrFailNow(t, err)

	for _, srv := range []*httptest.Server{good, broken} {
		_, err := st.RegisterNode(srv.URL)
		ifErrFailNow(t, err)
	}
	_, err = st.RegisterNode(closedServerURL())
	ifErrFailNow(t, err)

	t.Log("Given the need to resolve conflicts over HTTP.")
	{
		replaced, err := st.ResolveConflicts(context.Background())
		ifErrFailNow(t, err)

		if !replaced || !sameChain(st.RetrieveChain(), peerChain) {
			t.Fatalf("\t%s\tShould adopt the reachable peer's longer chain.", failed)
		}
		t.Logf("\t%s\tShould adopt the reachable peer's longer chain.", success)
	}
}

// closedServerURL returns the address of a server that is no longer running.
func closedServerURL() string {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	return url
}
