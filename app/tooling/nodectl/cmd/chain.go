package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ledgerworks/powchain/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var asTable bool

// chainCmd represents the chain command
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the node's full chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !asTable {
			return call(cmd, http.MethodGet, "/chain", nil)
		}

		data, err := do(cmd, http.MethodGet, "/chain", nil)
		if err != nil {
			return err
		}

		var chainData database.ChainData
		if err := json.Unmarshal(data, &chainData); err != nil {
			return fmt.Errorf("decoding chain: %w", err)
		}

		table, err := chainTable(chainData)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), table)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	chainCmd.Flags().BoolVar(&asTable, "table", false, "Print one row per block instead of JSON.")
}

// chainTable renders one row per block with the block's own hash so the
// links between blocks can be followed by eye.
func chainTable(chainData database.ChainData) (string, error) {
	td := pterm.TableData{
		{"Index", "Timestamp", "Txs", "Proof", "Previous Hash", "Hash"},
	}

	for _, block := range chainData.Chain {
		td = append(td, []string{
			strconv.FormatInt(block.Index, 10),
			strconv.FormatFloat(block.Timestamp, 'f', 3, 64),
			strconv.Itoa(len(block.Transactions)),
			strconv.FormatInt(block.Proof, 10),
			short(block.PreviousHash),
			short(block.Hash()),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(td).Srender()
}

func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16]
}
