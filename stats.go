// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipes

import "code.hybscloud.com/atomix"

// Stats is a snapshot of the runtime's process-wide counters.
// Only allocation and slow-path events are counted; the send/receive
// fast path touches nothing but the packet.
type Stats struct {
	Entangled       uint64 // endpoint pairs created
	Sleeps          uint64 // blocking waits that went to sleep
	Wakes           uint64 // wake signals sent to blocked tasks
	SpuriousWakes   uint64 // wakes for packets outside the watched set
	Terminations    uint64 // endpoints closed before being consumed
	BuffersReleased uint64 // buffers whose reference count reached zero
}

var stats struct {
	entangled       atomix.Uint64
	sleeps          atomix.Uint64
	wakes           atomix.Uint64
	spuriousWakes   atomix.Uint64
	terminations    atomix.Uint64
	buffersReleased atomix.Uint64
}

// ReadStats returns the current counter values.
func ReadStats() Stats {
	return Stats{
		Entangled:       stats.entangled.Load(),
		Sleeps:          stats.sleeps.Load(),
		Wakes:           stats.wakes.Load(),
		SpuriousWakes:   stats.spuriousWakes.Load(),
		Terminations:    stats.terminations.Load(),
		BuffersReleased: stats.buffersReleased.Load(),
	}
}
