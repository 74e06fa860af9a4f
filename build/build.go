package build

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/b1naryth1ef/layerlist"
	"github.com/b1naryth1ef/layerlist/dl"
	"github.com/b1naryth1ef/layerlist/web"
)

type BuildOpts struct {
	// Output limits the build to a single named output.
	Output string

	// Strict fails the build when the manifest could not be loaded instead of
	// writing a page that carries the diagnostic.
	Strict bool

	Fetcher dl.Fetcher
	Logger  *slog.Logger
}

func ensureDirectory(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}

func writeDirectory(dst string, fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			err = ensureDirectory(filepath.Join(dst, entry.Name()))
			if err != nil {
				return err
			}
			err = writeDirectory(filepath.Join(dst, entry.Name()), fsys, path.Join(dir, entry.Name()))
			if err != nil {
				return err
			}
		} else {
			contents, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
			if err != nil {
				return err
			}

			err = os.WriteFile(filepath.Join(dst, entry.Name()), contents, 0o644)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func writeIndex(dst string, data web.PageData) error {
	fd, err := os.Create(filepath.Join(dst, "index.html"))
	if err != nil {
		return err
	}

	return renderAndClose(fd, data)
}

// renderAndClose reports a failed Close, since that is where a short write to
// disk surfaces.
func renderAndClose(w io.WriteCloser, data web.PageData) error {
	err := web.Render(w, data)
	if err != nil {
		w.Close()
		return err
	}

	return w.Close()
}

func writeStatic(dst string) error {
	staticPath := filepath.Join(dst, "static")
	err := ensureDirectory(staticPath)
	if err != nil {
		return err
	}

	return writeDirectory(staticPath, web.StaticFS(), ".")
}

func selectOutputs(config *layerlist.Config, name string) ([]*layerlist.OutputConfigBlock, error) {
	if name == "" {
		return config.Outputs, nil
	}

	output := config.GetOutput(name)
	if output == nil {
		return nil, fmt.Errorf("unknown output '%s'", name)
	}
	return []*layerlist.OutputConfigBlock{output}, nil
}

// Build loads the manifest once and writes the rendered page into every
// selected output.
func Build(ctx context.Context, config *layerlist.Config, opts BuildOpts) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	outputs, err := selectOutputs(config, opts.Output)
	if err != nil {
		return err
	}
	if len(outputs) == 0 {
		return fmt.Errorf("no outputs configured")
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = dl.NewClient(config.HTTPTimeout())
	}

	loader := dl.Loader{
		Fetcher: fetcher,
		BaseURL: config.Manifest.BaseURL,
		Variant: dl.VariantFromConfig(config.Manifest),
		Logger:  logger,
	}

	start := time.Now()
	result := loader.Load(ctx)
	if result.Failed() && opts.Strict {
		return fmt.Errorf("failed to load manifest: %s", result.Error)
	}

	data, err := web.NewPageData(result)
	if err != nil {
		return fmt.Errorf("failed to prepare page data: %w", err)
	}

	for _, output := range outputs {
		err := ensureDirectory(output.Path)
		if err != nil {
			return err
		}

		err = writeIndex(output.Path, data)
		if err != nil {
			return fmt.Errorf("failed to write index for output '%s': %w", output.Name, err)
		}

		if output.IncludeStatic {
			err = writeStatic(output.Path)
			if err != nil {
				return fmt.Errorf("failed to write static content for output '%s': %w", output.Name, err)
			}
		}

		logger.Info("built output",
			"output", output.Name,
			"path", output.Path,
			"layers", len(result.AvailableShapefiles),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	return nil
}
