// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package record

import (
	"encoding/hex"
	"fmt"
)

// Identifier is the digest of a record's canonical encoding.
type Identifier [32]byte

// ZeroID is the identifier with all bytes set to zero.
var ZeroID Identifier

func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// IdentifierFromHex parses a hex-encoded identifier.
func IdentifierFromHex(s string) (Identifier, error) {
	var id Identifier
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("could not decode identifier: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid identifier length (have: %d, want: %d)", len(b), len(id))
	}
	copy(id[:], b)
	return id, nil
}
