package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/folio/internal/build"
	"git.home.luguber.info/inful/folio/internal/config"
	ferrors "git.home.luguber.info/inful/folio/internal/foundation/errors"
	"git.home.luguber.info/inful/folio/internal/pipeline"
	"git.home.luguber.info/inful/folio/internal/pipeline/stages"
)

type site struct {
	dir    string
	config string
	out    string
}

func newSite(t *testing.T, files map[string]string, extra string) site {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		full := filepath.Join(dir, "content", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
	}
	s := site{dir: dir, config: filepath.Join(dir, "folio.yaml"), out: filepath.Join(dir, "dist")}
	cfg := fmt.Sprintf("content:\n  root: %s\nbuild:\n  output_dir: %s\n  event_store: %s\nlogging:\n  level: error\n%s",
		filepath.Join(dir, "content"), s.out, filepath.Join(dir, "journal.db"), extra)
	require.NoError(t, os.WriteFile(s.config, []byte(cfg), 0o644))
	return s
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("folio"),
		kong.Vars{"version": "test"},
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var stdout bytes.Buffer
	g := &Global{Stdout: &stdout, Stderr: io.Discard}
	err = kctx.Run(g, &cli)
	return stdout.String(), err
}

const note = "---\ntitle: Hello\ntimestamp: 2024-01-02\n---\n# Hello\n\nBody.\n"

func TestBuildCommand(t *testing.T) {
	s := newSite(t, map[string]string{"note/hello.md": note}, "")

	out, err := execute(t, "-c", s.config, "build", "-C", "note")
	require.NoError(t, err)
	assert.Contains(t, out, "folio build")
	assert.Contains(t, out, string(build.BuildStatusSuccess))
	assert.FileExists(t, filepath.Join(s.out, "note", "hello.html"))
	assert.FileExists(t, filepath.Join(s.out, "note", build.ManifestFile))
}

func TestBuildCommandOutputOverride(t *testing.T) {
	s := newSite(t, map[string]string{"note/hello.md": note}, "")
	other := filepath.Join(s.dir, "elsewhere")

	_, err := execute(t, "-c", s.config, "build", "-C", "note", "-o", other)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(other, "note", "hello.html"))
	assert.NoDirExists(t, s.out)
}

func TestCheckCommandReportsProblems(t *testing.T) {
	s := newSite(t, map[string]string{
		"note/hello.md": note,
		"note/bad.md":   "---\ntimestamp: 2024-01-02\n---\nNo title.\n",
	}, "")

	out, err := execute(t, "-c", s.config, "check", "-C", "note")
	require.Error(t, err)
	assert.ErrorIs(t, err, build.ErrBuildFailed)
	assert.Equal(t, 11, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Contains(t, out, "folio check")
	assert.Contains(t, out, "bad.md")
	assert.NoDirExists(t, s.out, "check never writes output")
}

func TestUnknownCollectionIsValidationError(t *testing.T) {
	s := newSite(t, nil, "")

	out, err := execute(t, "-c", s.config, "check", "-C", "poems")
	require.Error(t, err)
	assert.Equal(t, 2, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.Empty(t, out)
}

func TestInvalidConfigExitCode(t *testing.T) {
	s := newSite(t, nil, "highlight:\n  copy_duration_ms: -1\n")

	_, err := execute(t, "-c", s.config, "build")
	require.Error(t, err)
	assert.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestStagesCommand(t *testing.T) {
	s := newSite(t, nil, "")

	out, err := execute(t, "-c", s.config, "stages", "-f", "json")
	require.NoError(t, err)
	var surface struct {
		Stages      []pipeline.Descriptor `json:"stages"`
		TotalStages int                   `json:"totalStages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &surface))
	assert.Equal(t, len(surface.Stages), surface.TotalStages)
	names := make([]string, len(surface.Stages))
	for i, d := range surface.Stages {
		names[i] = d.Name
	}
	assert.Equal(t, stages.Names(), names)

	out, err = execute(t, "-c", s.config, "stages")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Stage Pipeline"))

	file := filepath.Join(s.dir, "stages.mmd")
	out, err = execute(t, "-c", s.config, "stages", "-f", "mermaid", "-o", file)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.FileExists(t, file)
}

func TestHistoryCommand(t *testing.T) {
	s := newSite(t, map[string]string{"note/hello.md": note}, "")

	out, err := execute(t, "-c", s.config, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No builds recorded.")

	_, err = execute(t, "-c", s.config, "build", "-C", "note")
	require.NoError(t, err)

	out, err = execute(t, "-c", s.config, "history", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Build history")
	assert.Contains(t, out, "1 entries, 1 rendered, 0 rejected, 0 failed")
}

func TestHistoryWithoutJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yaml")
	require.NoError(t, os.WriteFile(path, []byte("content:\n  root: "+dir+"\n"), 0o644))

	_, err := execute(t, "-c", path, "history")
	require.Error(t, err)
	assert.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LoggingConfig{Level: "warn", Format: "json"}, false)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])

	buf.Reset()
	logger = NewLogger(&buf, config.LoggingConfig{Level: "error", Format: "text"}, true)
	logger.Debug("debug line")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
