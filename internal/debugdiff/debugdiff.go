// Package debugdiff snapshots CPU register state and reports what changed
// between successive steps. A host REPL or disassembler view is expected
// to format the result; this package only computes the diff itself.
package debugdiff

import "goba/internal/cpu"

// Diff reports which parts of a CPU's register state changed between two
// successive snapshots: the changed-GPR bitmap (bit n set iff GPR n
// differs), and the two PSR values so a caller can compare individual
// flag/mode bits itself.
type Diff struct {
	Old, New cpu.Snapshot

	// ChangedGPR has bit n set iff New.GPR[n] != Old.GPR[n], mirroring the
	// reference implementation's gpr_new bitmap.
	ChangedGPR uint16
}

// Tracker holds the most recent snapshot and produces a Diff against the
// next one, the stateful counterpart of the reference Arm7TdmiDiff.diff:
// each call to Update replaces the "old" state with what was "new" before
// computing the new changed-register bitmap.
type Tracker struct {
	last cpu.Snapshot
	have bool
}

// NewTracker creates a Tracker with no prior snapshot; the first Update
// compares against the zero Snapshot, so every non-zero register is
// reported as changed.
func NewTracker() *Tracker { return &Tracker{} }

// Update records a new snapshot and returns the Diff against whatever was
// previously recorded.
func (t *Tracker) Update(snap cpu.Snapshot) Diff {
	old := t.last
	if !t.have {
		old = cpu.Snapshot{}
		t.have = true
	}
	d := Diff{Old: old, New: snap}
	for i := 0; i < 16; i++ {
		if old.GPR[i] != snap.GPR[i] {
			d.ChangedGPR |= 1 << uint(i)
		}
	}
	t.last = snap
	return d
}

// GPRChanged reports whether general-purpose register n differs between
// the two snapshots the Diff compares.
func (d Diff) GPRChanged(n uint8) bool { return d.ChangedGPR&(1<<uint(n)) != 0 }

// FlagsChanged reports whether any of the N/Z/C/V condition flags differ
// between the old and new CPSR (the top four bits of the 32-bit value).
func (d Diff) FlagsChanged() bool {
	const flagsMask = uint32(0xF) << 28
	return d.Old.CPSR&flagsMask != d.New.CPSR&flagsMask
}

// ModeChanged reports whether the processor mode differs between the two
// snapshots.
func (d Diff) ModeChanged() bool { return d.Old.Mode != d.New.Mode }

// StateChanged reports whether the ARM/THUMB state bit differs between the
// two snapshots.
func (d Diff) StateChanged() bool { return d.Old.Thumb != d.New.Thumb }
