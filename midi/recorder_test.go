package midi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_StartStop(t *testing.T) {
	recorder := NewRecorder()
	assert.False(t, recorder.IsRecording())

	recorder.Start()
	assert.True(t, recorder.IsRecording())

	recorder.Stop()
	assert.False(t, recorder.IsRecording())
}

func TestRecorder_CapturesEventsWhileActive(t *testing.T) {
	recorder := NewRecorder()
	recorder.Start()

	recorder.RecordNoteOn(60, 80)
	recorder.RecordPitchBend(0.25)
	recorder.RecordNoteOff(60)

	assert.Equal(t, 3, recorder.EventCount())
}

func TestRecorder_IgnoresEventsWhileInactive(t *testing.T) {
	recorder := NewRecorder()

	recorder.RecordNoteOn(60, 80)
	assert.Equal(t, 0, recorder.EventCount())

	recorder.Start()
	recorder.RecordNoteOn(60, 80)
	recorder.Stop()

	recorder.RecordNoteOff(60)
	assert.Equal(t, 1, recorder.EventCount())
}

func TestRecorder_StartClearsPreviousTake(t *testing.T) {
	recorder := NewRecorder()

	recorder.Start()
	recorder.RecordNoteOn(60, 80)
	recorder.Stop()

	recorder.Start()
	assert.Equal(t, 0, recorder.EventCount())
}

func TestRecorder_Clear(t *testing.T) {
	recorder := NewRecorder()
	recorder.Start()
	recorder.RecordNoteOn(60, 80)

	recorder.Clear()
	assert.Equal(t, 0, recorder.EventCount())
	assert.True(t, recorder.IsRecording())
}

func TestRecorder_SaveEmptyFailsWithoutFile(t *testing.T) {
	recorder := NewRecorder()
	path := filepath.Join(t.TempDir(), "empty.mid")

	err := recorder.Save(path)
	require.ErrorIs(t, err, ErrNoEvents)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRecorder_SaveWritesFile(t *testing.T) {
	recorder := NewRecorder()
	recorder.Start()
	recorder.RecordNoteOn(60, 80)
	recorder.RecordNoteOff(60)
	recorder.Stop()

	path := filepath.Join(t.TempDir(), "take.mid")
	require.NoError(t, recorder.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// Standard MIDI file header chunk.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("MThd"), data[:4])
}

func TestMicrosToTicks(t *testing.T) {
	assert := assert.New(t)

	// One quarter note at 120 BPM.
	assert.Equal(uint32(480), microsToTicks(500000))
	assert.Equal(uint32(0), microsToTicks(0))
	// Floor, not round.
	assert.Equal(uint32(0), microsToTicks(1041))
	assert.Equal(uint32(1), microsToTicks(1042))
	// Saturates at the largest encodable delta.
	assert.Equal(uint32(0x0FFFFFFF), microsToTicks(1<<62))
}

func TestBendToValue(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint16(8192), BendToValue(0.0))
	assert.Equal(uint16(0), BendToValue(-1.0))
	assert.Equal(uint16(16383), BendToValue(1.0))
	assert.Equal(uint16(12288), BendToValue(0.5))

	// Out-of-range inputs clamp.
	assert.Equal(uint16(0), BendToValue(-3.0))
	assert.Equal(uint16(16383), BendToValue(3.0))
}
