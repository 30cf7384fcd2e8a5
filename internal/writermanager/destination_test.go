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

package writermanager

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardinalhq/lakesink/internal/table"
)

func TestDestination_ValueEquality(t *testing.T) {
	a := Destination{Table: table.Identifier{Namespace: "ns", Name: "t"}, Window: Window{0, 10}, Pane: Pane{Index: 1}}
	b := Destination{Table: table.Identifier{Namespace: "ns", Name: "t"}, Window: Window{0, 10}, Pane: Pane{Index: 1}}
	m := map[Destination]int{a: 1}
	m[b]++
	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[a])
	assert.Zero(t, a.Compare(b))
}

func TestDestination_Compare(t *testing.T) {
	base := Destination{Table: table.Identifier{Namespace: "ns", Name: "b"}, Window: Window{10, 20}, Pane: Pane{Index: 1}}
	tests := []struct {
		name  string
		other Destination
		want  int
	}{
		{"namespace", Destination{Table: table.Identifier{Namespace: "nt", Name: "a"}}, -1},
		{"name", Destination{Table: table.Identifier{Namespace: "ns", Name: "a"}, Window: Window{99, 100}}, 1},
		{"window", Destination{Table: base.Table, Window: Window{20, 30}}, -1},
		{"pane", Destination{Table: base.Table, Window: base.Window, Pane: Pane{Index: 0}}, 1},
		{"timing", Destination{Table: base.Table, Window: base.Window, Pane: Pane{Index: 1, Timing: TimingLate}}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Compare(tt.other))
			assert.Equal(t, -tt.want, tt.other.Compare(base))
		})
	}
}

func TestDestination_String(t *testing.T) {
	d := Destination{Table: table.Identifier{Namespace: "ns", Name: "t"}}
	assert.Equal(t, "ns.t@global#0", d.String())
	d.Window = Window{StartMillis: 1000, EndMillis: 2000}
	d.Pane.Index = 4
	assert.Equal(t, "ns.t@[1000,2000)#4", d.String())
	assert.True(t, Window{}.IsGlobal())
}
