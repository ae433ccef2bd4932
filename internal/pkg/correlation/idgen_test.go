package correlation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		format  string
		version uuid.Version
	}{
		{"", 4},
		{FormatUUID, 4},
		{FormatUUIDv7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			gen, err := NewGenerator(tt.format)
			require.NoError(t, err)

			parsed, err := uuid.Parse(gen.Generate())
			require.NoError(t, err)
			assert.Equal(t, tt.version, parsed.Version())
		})
	}
}

func TestNewGenerator_XID(t *testing.T) {
	gen, err := NewGenerator(FormatXID)
	require.NoError(t, err)

	_, err = xid.FromString(gen.Generate())
	assert.NoError(t, err)
}

func TestNewGenerator_Unknown(t *testing.T) {
	_, err := NewGenerator("snowflake")
	assert.ErrorIs(t, err, ErrUnknownIDFormat)
}

func TestGenerators_Unique(t *testing.T) {
	for _, gen := range []Generator{UUIDGenerator{}, UUIDv7Generator{}, XIDGenerator{}} {
		seen := make(map[string]struct{})
		for i := 0; i < 1000; i++ {
			id := gen.Generate()
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %q", id)
			seen[id] = struct{}{}
		}
	}
}
