package build

import (
	"encoding/json"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/folio/internal/content"
	ferrors "git.home.luguber.info/inful/folio/internal/foundation/errors"
	"git.home.luguber.info/inful/folio/internal/highlight"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// ManifestFile lists the entries of a collection next to their fragments.
const ManifestFile = "entries.json"

// ThemeFile holds the resolved highlight palettes of the build.
const ThemeFile = "theme.json"

// ManifestEntry is one entry of a collection manifest.
type ManifestEntry struct {
	ID          string         `json:"id"`
	Locale      string         `json:"locale"`
	Path        string         `json:"path"`
	Format      string         `json:"format"`
	Fingerprint string         `json:"fingerprint"`
	Data        map[string]any `json:"data"`
	// HTML is the fragment file relative to the collection directory.
	HTML string             `json:"html,omitempty"`
	Meta *pipeline.Metadata `json:"meta,omitempty"`
}

// ThemeManifest is the content of ThemeFile.
type ThemeManifest struct {
	Styles     highlight.Colors  `json:"styles"`
	Background highlight.Colors  `json:"background"`
	Light      map[string]string `json:"light"`
	Dark       map[string]string `json:"dark"`
}

func outputError(err error, path string) error {
	return ferrors.WrapError(err, ErrOutputFailed.Category(), ErrOutputFailed.Message()).
		WithContext("path", path).
		Build()
}

// prepareOutput creates dir, removing its previous content first when clean
// is set.
func prepareOutput(dir string, clean bool) error {
	if dir == "" {
		return ferrors.ConfigError("build output directory is empty").Build()
	}
	if clean {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return outputError(err, dir)
		}
		if abs == filepath.Dir(abs) {
			return ferrors.ConfigError("refusing to clean the filesystem root").WithContext("path", dir).Build()
		}
		if err := os.RemoveAll(abs); err != nil {
			return outputError(err, dir)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return outputError(err, dir)
	}
	return nil
}

// writeCollection writes every fragment of docs and the collection manifest.
// A collection stopped by a loader error writes nothing.
func writeCollection(out string, cr *CollectionResult, docs []rendered) error {
	if cr.Fatal != nil {
		return nil
	}
	dir := filepath.Join(out, cr.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return outputError(err, dir)
	}

	manifest := make([]ManifestEntry, 0, len(docs))
	for _, d := range docs {
		me := manifestEntry(d.entry)
		if d.html != "" {
			me.HTML = d.entry.ID + ".html"
			meta := d.meta
			me.Meta = &meta
			path := filepath.Join(dir, filepath.FromSlash(me.HTML))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return outputError(err, path)
			}
			if err := os.WriteFile(path, []byte(d.html), 0o644); err != nil {
				return outputError(err, path)
			}
		}
		manifest = append(manifest, me)
	}
	return writeJSON(filepath.Join(dir, ManifestFile), manifest)
}

func manifestEntry(e *content.Entry) ManifestEntry {
	return ManifestEntry{
		ID:          e.ID,
		Locale:      e.Locale,
		Path:        e.Path,
		Format:      string(e.Format),
		Fingerprint: e.Fingerprint,
		Data:        e.Data,
	}
}

func writeTheme(out string, theme *highlight.Theme) error {
	light, err := theme.Variant(highlight.Light)
	if err != nil {
		return err
	}
	dark, err := theme.Variant(highlight.Dark)
	if err != nil {
		return err
	}
	lightName, darkName := theme.Names()
	return writeJSON(filepath.Join(out, ThemeFile), ThemeManifest{
		Styles:     highlight.Colors{Light: lightName, Dark: darkName},
		Background: theme.Background(),
		Light:      light,
		Dark:       dark,
	})
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return outputError(err, path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return outputError(err, path)
	}
	return nil
}
