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
	"cmp"
	"fmt"

	"github.com/cardinalhq/lakesink/internal/table"
)

// PaneTiming says when a pane fired relative to the watermark.
type PaneTiming string

const (
	TimingUnknown PaneTiming = ""
	TimingEarly   PaneTiming = "EARLY"
	TimingOnTime  PaneTiming = "ON_TIME"
	TimingLate    PaneTiming = "LATE"
)

// Pane identifies one firing of a window.
type Pane struct {
	Index  int64
	Timing PaneTiming
}

// Window is a half-open event-time interval in epoch milliseconds. The
// zero Window is the global window.
type Window struct {
	StartMillis int64
	EndMillis   int64
}

func (w Window) IsGlobal() bool {
	return w == Window{}
}

func (w Window) String() string {
	if w.IsGlobal() {
		return "global"
	}
	return fmt.Sprintf("[%d,%d)", w.StartMillis, w.EndMillis)
}

// Destination is the logical target of a record: a table plus the window
// and pane the record was produced in. Destinations compare by value.
type Destination struct {
	Table  table.Identifier
	Window Window
	Pane   Pane
}

// Compare orders destinations by table, window and then pane.
func (d Destination) Compare(o Destination) int {
	return cmp.Or(
		cmp.Compare(d.Table.Namespace, o.Table.Namespace),
		cmp.Compare(d.Table.Name, o.Table.Name),
		cmp.Compare(d.Window.StartMillis, o.Window.StartMillis),
		cmp.Compare(d.Window.EndMillis, o.Window.EndMillis),
		cmp.Compare(d.Pane.Index, o.Pane.Index),
		cmp.Compare(d.Pane.Timing, o.Pane.Timing),
	)
}

func (d Destination) String() string {
	return fmt.Sprintf("%s@%s#%d", d.Table, d.Window, d.Pane.Index)
}
