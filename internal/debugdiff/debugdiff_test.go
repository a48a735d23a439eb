package debugdiff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goba/internal/cpu"
	"goba/internal/psr"
)

func TestFirstUpdateComparesAgainstZeroState(t *testing.T) {
	tr := NewTracker()
	snap := cpu.Snapshot{}
	snap.GPR[0] = 1
	d := tr.Update(snap)
	assert.True(t, d.GPRChanged(0))
	for n := uint8(1); n < 16; n++ {
		assert.False(t, d.GPRChanged(n))
	}
}

func TestSubsequentUpdateComparesAgainstPrevious(t *testing.T) {
	tr := NewTracker()
	first := cpu.Snapshot{}
	first.GPR[2] = 5
	tr.Update(first)

	second := first
	second.GPR[2] = 5 // unchanged
	second.GPR[3] = 9 // changed
	d := tr.Update(second)

	assert.False(t, d.GPRChanged(2))
	assert.True(t, d.GPRChanged(3))
}

func TestChangedGPRBitmapMatchesGPRChanged(t *testing.T) {
	tr := NewTracker()
	tr.Update(cpu.Snapshot{})

	snap := cpu.Snapshot{}
	snap.GPR[0] = 1
	snap.GPR[15] = 8
	d := tr.Update(snap)

	assert.Equal(t, uint16(1<<0|1<<15), d.ChangedGPR)
	assert.True(t, d.GPRChanged(0))
	assert.True(t, d.GPRChanged(15))
	assert.False(t, d.GPRChanged(1))
}

func TestFlagsChangedOnlyLooksAtTopNibble(t *testing.T) {
	old := cpu.Snapshot{CPSR: 0x0000_0013} // Supervisor mode bits, no flags
	newSnap := old
	newSnap.CPSR = 0x0000_0013 | 0x20 // control bits differ (T set), flags don't

	d := Diff{Old: old, New: newSnap}
	assert.False(t, d.FlagsChanged())

	newSnap.CPSR = old.CPSR | (1 << 31) // N flag now set
	d = Diff{Old: old, New: newSnap}
	assert.True(t, d.FlagsChanged())
}

func TestModeAndStateChanged(t *testing.T) {
	d := Diff{
		Old: cpu.Snapshot{Mode: psr.User, Thumb: false},
		New: cpu.Snapshot{Mode: psr.Supervisor, Thumb: true},
	}
	assert.True(t, d.ModeChanged())
	assert.True(t, d.StateChanged())

	same := Diff{
		Old: cpu.Snapshot{Mode: psr.IRQ, Thumb: true},
		New: cpu.Snapshot{Mode: psr.IRQ, Thumb: true},
	}
	assert.False(t, same.ModeChanged())
	assert.False(t, same.StateChanged())
}

func TestTrackerRetainsLastSnapshotAcrossUpdates(t *testing.T) {
	tr := NewTracker()
	a := cpu.Snapshot{}
	a.GPR[4] = 100
	tr.Update(a)

	b := a
	b.GPR[4] = 200
	d := tr.Update(b)

	assert.Equal(t, uint32(100), d.Old.GPR[4])
	assert.Equal(t, uint32(200), d.New.GPR[4])
}
