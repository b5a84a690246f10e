package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/folio/internal/collections"
	"git.home.luguber.info/inful/folio/internal/loader"
	"git.home.luguber.info/inful/folio/internal/schema"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func noteConfig(root string) loader.Config {
	return loader.Config{
		Collection:    collections.Note,
		BasePath:      root,
		Include:       []string{"**/*.md"},
		DefaultLocale: "en",
	}
}

func TestIngest_ReportsEveryProblem(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"good.md":     "---\ntitle: Good\ntimestamp: 2024-01-02\ntop: 1\n---\nHello\n",
		"untitled.md": "---\ntimestamp: 2024-01-02\n---\n",
		"negative.md": "---\ntitle: N\ntimestamp: 2024-01-02\ntop: -3\n---\n",
		"unclosed.md": "---\ntitle: U\n",
		"_private.md": "---\n---\n",
	})

	batch, err := Ingester{Workers: 2}.Ingest(t.Context(), noteConfig(root), collections.NoteSchema())
	require.NoError(t, err)

	require.Len(t, batch.Entries, 1)
	assert.Equal(t, "good", batch.Entries[0].ID)
	require.Len(t, batch.Problems, 3)

	byPath := map[string]Problem{}
	for _, p := range batch.Problems {
		byPath[p.Path] = p
	}
	assert.ErrorIs(t, byPath["unclosed.md"].Err, loader.ErrParseFailed)
	assert.Empty(t, byPath["unclosed.md"].ID)

	assert.ErrorIs(t, byPath["untitled.md"], schema.ErrMissingField)
	assert.ErrorIs(t, byPath["untitled.md"], ErrValidationFailed)
	assert.ErrorIs(t, byPath["negative.md"], schema.ErrConstraintViolation)
	require.Len(t, byPath["negative.md"].FieldErrors(), 1)
}

func TestIngest_DuplicateIsFatal(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a/Post.md": "---\ntitle: A\ntimestamp: 2024-01-02\n---\n",
		"a/post.md": "---\ntitle: B\ntimestamp: 2024-01-02\n---\n",
	})
	_, err := Ingester{}.Ingest(t.Context(), noteConfig(root), collections.NoteSchema())
	assert.ErrorIs(t, err, loader.ErrDuplicateIdentifier)
}

func TestEntryAccessors(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"p.md": "---\ntitle: P\ntimestamp: 2024-01-02\ndraft: true\ntoc: true\ntop: 4\n---\nbody text\n",
	})
	batch, err := Ingester{}.Ingest(t.Context(), noteConfig(root), collections.NoteSchema())
	require.NoError(t, err)
	require.Len(t, batch.Entries, 1)
	e := batch.Entries[0]

	assert.Equal(t, Flags{Draft: true, TOC: true, Top: 4}, e.Flags())
	assert.Equal(t, "P", e.Title())
	ts, ok := e.Timestamp()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ts)
	assert.Equal(t, "en", e.Locale)
	assert.Equal(t, 8, e.BodyLine)
	assert.True(t, e.HasBody())
	assert.NotEmpty(t, e.Fingerprint)
}

func TestFingerprintIsStable(t *testing.T) {
	data := map[string]any{"title": "x", "top": 1, "tags": []any{"a"}}
	a, err := Fingerprint(data, "body")
	require.NoError(t, err)
	b, err := Fingerprint(map[string]any{"tags": []any{"a"}, "top": 1, "title": "x"}, "body")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Fingerprint(data, "other body")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
