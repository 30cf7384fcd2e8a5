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

// Package idgen generates the identifiers embedded in file names and
// telemetry: per-process instance ids, per-destination state tokens and
// per-run file prefixes.
package idgen

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sony/sonyflake"
)

// flakeEpoch is the sonyflake start time. Changing it reorders every id
// generated afterwards relative to earlier ones.
var flakeEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// defaultFlake is built on first use so that hosts without a private IPv4
// address can still import this package.
var defaultFlake = sync.OnceValue(func() *flakeGenerator {
	g, err := newFlakeGenerator()
	if err != nil {
		// Only reachable if the random machine id is also refused.
		panic(err)
	}
	return g
})

type flakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// newFlakeGenerator derives the machine id from the host's private IPv4
// address and falls back to a random one when there is none.
func newFlakeGenerator() (*flakeGenerator, error) {
	g, err := newFlakeGeneratorWithMachineID(nil)
	if err == nil {
		return g, nil
	}
	return newFlakeGeneratorWithMachineID(randomMachineID)
}

func newFlakeGeneratorWithMachineID(machineID func() (uint16, error)) (*flakeGenerator, error) {
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: flakeEpoch,
		MachineID: machineID,
	})
	if err != nil {
		return nil, err
	}
	if sf == nil {
		return nil, errors.New("idgen: failed to create sonyflake instance")
	}
	return &flakeGenerator{sf: sf}, nil
}

func randomMachineID() (uint16, error) {
	return uint16(rand.N(1 << 16)), nil
}

// NextID returns a positive int64 that increases roughly in time order.
// If the sonyflake clock is exhausted a random id is returned instead.
func (g *flakeGenerator) NextID() int64 {
	v, err := g.sf.NextID()
	if err != nil {
		return rand.Int64()
	}
	return int64(v)
}

// InstanceID returns a process-unique id used to tag logs and metrics.
func InstanceID() int64 {
	return defaultFlake().NextID()
}
