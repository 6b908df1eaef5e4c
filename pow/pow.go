/*
 * Copyright 2017-2022 Provide Technologies Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumanth9415/workValidaton/common"
)

// NonceNotFound is the sentinel nonce returned when the search ceiling is
// reached without a satisfying digest; a normal, retryable outcome
const NonceNotFound = int64(-1)

// Solution is a candidate proof-of-work receipt; Hash is the lowercase hex
// sha256 digest of the canonical input concatenated with the base-10 nonce
type Solution struct {
	Nonce int64  `json:"nonce"`
	Hash  string `json:"hash"`
}

// Found returns true unless the solution represents an exhausted search
func (s *Solution) Found() bool {
	return s.Nonce != NonceNotFound
}

// CanonicalInput constructs the exact byte string both the client search and
// the server-side verifier hash: task identifier, "-", worker identifier.
// Solution content and timestamps are deliberately excluded; any change to
// this rule must be applied identically on both sides of the wire.
func CanonicalInput(taskID, workerID string) string {
	return fmt.Sprintf("%s-%s", taskID, workerID)
}

// Digest returns the lowercase hex sha256 digest of the UTF-8 bytes of the input
func Digest(input string) string {
	return common.SHA256(input)
}

// HasPrefix performs the literal, case-sensitive prefix test over the hex
// representation of the given digest
func HasPrefix(hash, prefix string) bool {
	return strings.HasPrefix(hash, prefix)
}

// SearchNonce iterates candidate nonces from zero, returning the first
// solution whose digest satisfies the prefix rule. The search is
// deterministic and restartable; re-running it with the same input yields
// the same minimal nonce. When maxAttempts is reached the returned solution
// carries NonceNotFound and an empty hash.
func SearchNonce(input, prefix string, maxAttempts int64) *Solution {
	nonce := int64(0)

	for nonce < maxAttempts {
		hash := Digest(input + strconv.FormatInt(nonce, 10))
		if HasPrefix(hash, prefix) {
			return &Solution{
				Nonce: nonce,
				Hash:  hash,
			}
		}
		nonce++
	}

	return &Solution{
		Nonce: NonceNotFound,
		Hash:  "",
	}
}

// Verify recomputes ground truth for a claimed solution from identifiers the
// server already possesses. Both conditions are required: digest equality
// alone does not prove the difficulty rule was met, and a prefix test alone
// would accept an arbitrary client-supplied hash. Pure and side-effect-free;
// safe to call repeatedly for audit or display.
func Verify(taskID, workerID string, nonce int64, claimedHash, prefix string) bool {
	if nonce < 0 {
		return false
	}

	input := CanonicalInput(taskID, workerID)
	hash := Digest(input + strconv.FormatInt(nonce, 10))
	return hash == claimedHash && HasPrefix(hash, prefix)
}
