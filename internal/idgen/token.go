// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package idgen

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const stateTokenLength = 25

// NewStateToken returns a fresh random token for one destination's writer
// state. Tokens are fixed-length lowercase base36 so they sort and embed
// cleanly in object keys; two manager lifetimes never share a token, which
// keeps data and manifest names from colliding across restarts.
func NewStateToken() string {
	return uuidToBase36(uuid.New())
}

func uuidToBase36(id uuid.UUID) string {
	s := new(big.Int).SetBytes(id[:]).Text(36)
	if len(s) < stateTokenLength {
		s = strings.Repeat("0", stateTokenLength-len(s)) + s
	}
	return s
}
