// Package genesis maintains access to the genesis settings.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
)

// Genesis represents the fixed settings every node in a network must share
// for their chains to be compatible.
type Genesis struct {
	Proof        int64   `json:"proof"`         // Proof recorded in the genesis block.
	PreviousHash string  `json:"previous_hash"` // Placeholder parent hash for the genesis block.
	RewardSender string  `json:"reward_sender"` // Sender recorded on mining reward transactions.
	MiningReward float64 `json:"mining_reward"` // Reward for mining a block.
}

// Default returns the settings used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Proof:        0,
		PreviousHash: "1",
		RewardSender: "0",
		MiningReward: 1,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file
// keep their default values.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file: %w", err)
	}

	return genesis, nil
}
