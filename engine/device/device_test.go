package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUsageHint(t *testing.T) {
	tests := []struct {
		in      string
		want    UsageHint
		wantErr bool
	}{
		{"static", HintStatic, false},
		{"", HintStatic, false},
		{" Dynamic ", HintDynamic, false},
		{"stream", HintStatic, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUsageHint(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextContextIDUnique(t *testing.T) {
	seen := make(map[ContextID]bool)
	for i := 0; i < 100; i++ {
		id := NextContextID()
		assert.NotZero(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "vertex", TargetVertexAttribute.String())
	assert.Equal(t, "index", TargetIndex.String())
	assert.Equal(t, "static", HintStatic.String())
	assert.Equal(t, "dynamic", HintDynamic.String())
}
