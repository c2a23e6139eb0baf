package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedKeys(t *testing.T) {
	keys := sortedKeys(Fields{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestZapLogger_WithFieldsMerges(t *testing.T) {
	base := NewZapLogger()
	child := base.WithFields(Fields{"component": "test"}).(*ZapLogger)
	grandchild := child.WithFields(Fields{"session": "abc"}).(*ZapLogger)

	assert.Equal(t, Fields{"component": "test"}, child.fields)
	assert.Equal(t, Fields{"component": "test", "session": "abc"}, grandchild.fields)
	// The parent is unchanged.
	assert.Empty(t, base.fields)
}

func TestZapFields_StableOrderAndError(t *testing.T) {
	logger := NewZapLogger()
	fields := logger.zapFields(errors.New("boom"), Fields{"z": 1, "a": 2})

	assert.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "z", fields[1].Key)
	assert.Equal(t, "error", fields[2].Key)
}

func TestSetGlobalLogger_NilInstallsNoOp(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	SetGlobalLogger(nil)
	assert.IsType(t, &NoOpLogger{}, GetGlobalLogger())

	// Must not panic.
	Debug("d")
	Info("i")
	Warn("w")
	Error(errors.New("e"), "e")
}
