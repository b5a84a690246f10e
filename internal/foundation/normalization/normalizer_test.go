package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type casing string

const (
	casingUpper casing = "upper"
	casingLower casing = "lower"
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer("casing", map[string]casing{
		"upper": casingUpper,
		"LOWER": casingLower,
	}, casingUpper)

	tests := []struct {
		input string
		want  casing
	}{
		{"upper", casingUpper},
		{"  Lower ", casingLower},
		{"unknown", casingUpper},
		{"", casingUpper},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.input), tt.input)
	}

	assert.Equal(t, []string{"lower", "upper"}, n.ValidKeys())
}

func TestNormalizer_Parse(t *testing.T) {
	n := NewNormalizer("casing", map[string]casing{"upper": casingUpper}, casingUpper)

	v, err := n.Parse("")
	require.NoError(t, err)
	assert.Equal(t, casingUpper, v)

	_, err = n.Parse("title")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid casing "title"`)
}
