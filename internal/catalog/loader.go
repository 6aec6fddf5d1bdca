package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
)

// LoadStats reports how many product/class files were read.
type LoadStats struct {
	Loaded  int
	Missing int
	Invalid int
}

type entry struct {
	CADJSON struct {
		Polylines []cad.Polyline `json:"polylines"`
	} `json:"cad_json"`
	Metadata Metadata `json:"metadata"`
}

type job struct {
	product string
	class   Class
	path    string
}

// Load reads every product/class file named by m from dir concurrently. A
// missing or malformed file is logged and skipped; only context cancellation
// fails the load.
func Load(ctx context.Context, dir string, m *Manifest) (*Catalog, LoadStats, error) {
	if m == nil {
		m = DefaultManifest()
	}
	log := zap.L().With(zap.String("component", "catalog"))

	var jobs []job
	for _, p := range m.Products {
		for _, class := range Classes {
			jobs = append(jobs, job{product: p.ID, class: class, path: filepath.Join(dir, p.File(class))})
		}
	}

	results := make([][]Pattern, len(jobs))
	status := make([]int, len(jobs))
	const (
		loaded = iota
		missing
		invalid
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(j.path)
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn("catalog file not found", zap.String("path", j.path))
				status[i] = missing
				return nil
			}
			if err != nil {
				log.Warn("catalog file unreadable", zap.String("path", j.path), zap.Error(err))
				status[i] = invalid
				return nil
			}
			patterns, err := parseGroup(data, j.product, j.class)
			if err != nil {
				log.Warn("catalog file malformed", zap.String("path", j.path), zap.Error(err))
				status[i] = invalid
				return nil
			}
			results[i] = patterns
			status[i] = loaded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, LoadStats{}, eris.Wrap(err, "catalog: load")
	}

	var stats LoadStats
	var all []Pattern
	for i := range jobs {
		switch status[i] {
		case loaded:
			stats.Loaded++
		case missing:
			stats.Missing++
		case invalid:
			stats.Invalid++
		}
		all = append(all, results[i]...)
	}

	log.Info("catalog loaded",
		zap.Int("files", stats.Loaded),
		zap.Int("of", len(jobs)),
		zap.Int("patterns", len(all)),
	)
	return New(m.Specs(), all), stats, nil
}

// parseGroup decodes one product/class file, keeping the patterns in the
// order they appear.
func parseGroup(data []byte, product string, class Class) ([]Pattern, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read opening token")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, eris.New("catalog: expected a JSON object of patterns")
	}

	var patterns []Pattern
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, eris.Wrap(err, "catalog: read pattern name")
		}
		name, _ := tok.(string)

		var e entry
		if err := dec.Decode(&e); err != nil {
			return nil, eris.Wrapf(err, "catalog: decode pattern %s", name)
		}
		patterns = append(patterns, Pattern{
			Name:      name,
			Product:   product,
			Class:     class,
			Metadata:  e.Metadata,
			Polylines: e.CADJSON.Polylines,
		})
	}
	if _, err := dec.Token(); err != nil {
		return nil, eris.Wrap(err, "catalog: read closing token")
	}
	return patterns, nil
}
