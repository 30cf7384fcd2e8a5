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
	crand "crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	prefixMu      sync.Mutex
	prefixEntropy = ulid.Monotonic(crand.Reader, 0)
)

// NewFilePrefix returns a lowercase ULID for t. Prefixes generated by one
// process are strictly increasing, so files written by later runs sort after
// earlier ones.
func NewFilePrefix(t time.Time) string {
	prefixMu.Lock()
	defer prefixMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(t), prefixEntropy).String())
}
