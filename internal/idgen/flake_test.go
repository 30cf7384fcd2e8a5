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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlakeGenerator_NextID(t *testing.T) {
	gen, err := newFlakeGenerator()
	require.NoError(t, err)

	id := gen.NextID()
	id2 := gen.NextID()
	assert.Greater(t, id2, id)
	assert.Positive(t, id)
}

func TestInstanceID(t *testing.T) {
	assert.NotEqual(t, InstanceID(), InstanceID())
}

func TestFlakeGenerator_ExplicitMachineID(t *testing.T) {
	gen, err := newFlakeGeneratorWithMachineID(func() (uint16, error) { return 42, nil })
	require.NoError(t, err)
	assert.Positive(t, gen.NextID())
}

func TestFlakeGenerator_MachineIDFailure(t *testing.T) {
	_, err := newFlakeGeneratorWithMachineID(func() (uint16, error) {
		return 0, errors.New("no private ip address")
	})
	assert.Error(t, err)
}

func TestRandomMachineID(t *testing.T) {
	gen, err := newFlakeGeneratorWithMachineID(randomMachineID)
	require.NoError(t, err)
	id := gen.NextID()
	assert.Greater(t, gen.NextID(), id)
}
