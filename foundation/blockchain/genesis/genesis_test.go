package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ledgerworks/powchain/foundation/blockchain/genesis"
)

func Test_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(`{"reward_sender":"network","mining_reward":2.5}`), 0600); err != nil {
		t.Fatalf("Should be able to write the genesis file: %v", err)
	}

	gen, err := genesis.Load(path)
	if err != nil {
		t.Fatalf("Should be able to load the genesis file: %v", err)
	}

	def := genesis.Default()
	exp := genesis.Genesis{
		Proof:        def.Proof,
		PreviousHash: def.PreviousHash,
		RewardSender: "network",
		MiningReward: 2.5,
	}

	if gen != exp {
		t.Logf("got: %+v", gen)
		t.Logf("exp: %+v", exp)
		t.Fatalf("Should get the file values over the defaults.")
	}

	if _, err := genesis.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("Should fail to load a missing genesis file.")
	}
}
