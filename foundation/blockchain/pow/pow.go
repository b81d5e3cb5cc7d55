// Package pow implements the proof of work puzzle. A proof is valid for a
// prior proof when the SHA-256 digest of the two numbers written back to back
// starts with Difficulty zeros.
package pow

import (
	"context"
	"strconv"
	"strings"

	"github.com/ledgerworks/powchain/foundation/blockchain/hasher"
)

// Difficulty is the number of leading hex zeros a solution must produce.
const Difficulty = 4

// reportEvery controls how often progress is reported while searching.
const reportEvery = 1_000_000

// =============================================================================

// Verify reports whether proof solves the puzzle defined by lastProof.
func Verify(lastProof int64, proof int64) bool {
	guess := strconv.FormatInt(lastProof, 10) + strconv.FormatInt(proof, 10)
	return isHashSolved(hasher.Sum([]byte(guess)))
}

// Solve searches the non-negative integers in order, starting at zero, and
// returns the first proof that Verify accepts. There is no upper bound on the
// search so the only way out, other than a solution, is cancelling ctx.
func Solve(ctx context.Context, lastProof int64, ev func(v string, args ...any)) (int64, error) {
	ev("pow: Solve: MINING: started: lastProof[%d]", lastProof)
	defer ev("pow: Solve: MINING: completed")

	var attempts uint64
	for proof := int64(0); ; proof++ {
		attempts++
		if attempts%reportEvery == 0 {
			ev("pow: Solve: MINING: attempts[%d]", attempts)
		}

		// Did we get cancelled trying to solve the problem.
		if err := ctx.Err(); err != nil {
			ev("pow: Solve: MINING: CANCELLED")
			return 0, err
		}

		if Verify(lastProof, proof) {
			ev("pow: Solve: MINING: SOLVED: proof[%d]: attempts[%d]", proof, attempts)
			return proof, nil
		}
	}
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(hash string) bool {
	if len(hash) != 64 {
		return false
	}

	return strings.HasPrefix(hash, strings.Repeat("0", Difficulty))
}
