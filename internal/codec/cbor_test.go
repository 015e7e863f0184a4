package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	B  string    `json:"b"`
	A  int       `json:"a"`
	At time.Time `json:"at"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	first, err := Marshal(map[string]int{"z": 1, "a": 2, "m": 3})
	require.NoError(t, err)

	for range 10 {
		again, err := Marshal(map[string]int{"m": 3, "z": 1, "a": 2})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTimeKeepsNanoseconds(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 789, time.UTC)

	data, err := Marshal(sample{B: "x", A: 1, At: at})
	require.NoError(t, err)

	var decoded sample
	require.NoError(t, Unmarshal(data, &decoded))
	assert.True(t, at.Equal(decoded.At))
	assert.Equal(t, "x", decoded.B)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var decoded sample
	assert.Error(t, Unmarshal([]byte{0xff, 0x00, 0x13}, &decoded))
}
