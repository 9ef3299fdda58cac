package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAllRejectsEmpty(t *testing.T) {
	assert.ErrorIs(t, WriteAll(""), ErrEmpty)
}

func TestWriteAllRoundTrip(t *testing.T) {
	if Unsupported() {
		t.Skip("no clipboard on this system")
	}
	if err := WriteAll("Excuse me!"); err != nil {
		t.Skipf("clipboard not usable: %v", err)
	}

	got, err := ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Excuse me!", got)
}
