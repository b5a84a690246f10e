package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func links(src string) []Link {
	source := []byte(src)
	return Links(NewEngine(Options{}).Parse(source), source)
}

func TestLinks_InlineLink(t *testing.T) {
	got := links("See [API](api.md) for details.")
	require.Len(t, got, 1)
	assert.Equal(t, Link{Kind: LinkKindInline, Destination: "api.md"}, got[0])
}

func TestLinks_ImageLink(t *testing.T) {
	got := links("![Diagram](diagram.png)")
	require.Len(t, got, 1)
	assert.Equal(t, Link{Kind: LinkKindImage, Destination: "diagram.png"}, got[0])
}

func TestLinks_AutoLink(t *testing.T) {
	got := links("<https://example.com/path> and www.example.org")
	require.Len(t, got, 2)
	assert.Equal(t, Link{Kind: LinkKindAuto, Destination: "https://example.com/path"}, got[0])
	assert.Equal(t, LinkKindAuto, got[1].Kind)
	assert.Equal(t, "http://www.example.org", got[1].Destination)
}

func TestLinks_ReferenceLinkResolves(t *testing.T) {
	got := links("See [API][ref].\n\n[ref]: api.md\n")
	require.Len(t, got, 1)
	assert.Equal(t, Link{Kind: LinkKindInline, Destination: "api.md"}, got[0])
}

func TestLinks_SkipsInlineCodeAndCodeBlocks(t *testing.T) {
	got := links("" +
		"Inline code: `[Link](./ignored-inline.md)`\n" +
		"\n" +
		"```\n" +
		"[Link](./ignored-fence.md)\n" +
		"```\n" +
		"\n" +
		"Real: [OK](./real.md)\n")
	require.Len(t, got, 1)
	assert.Equal(t, "./real.md", got[0].Destination)
}
