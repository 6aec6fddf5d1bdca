package placer

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/fetcher"
	"github.com/redbay-eng/drainfield-placer/internal/requirements"
	"github.com/redbay-eng/drainfield-placer/internal/store"
)

// Manifest columns. property_id and boundary are required.
const (
	ColPropertyID   = "property_id"
	ColBoundary     = "boundary"
	ColSplit1       = "split_1"
	ColSplit2       = "split_2"
	ColFlowGPD      = "flow_gpd"
	ColBedrooms     = "bedrooms"
	ColBuildingSqft = "building_sqft"
	ColHomes        = "homes"
	ColCommercial   = "commercial"
)

// BatchItem is one manifest row. Paths are absolute or relative to the
// manifest's directory.
type BatchItem struct {
	PropertyID string
	Boundary   string
	Split      []string
	FlowGPD    float64
	Dwelling   *requirements.SizingInput
}

// BatchResult pairs an item with its outcome or the error that stopped it.
type BatchResult struct {
	Item    BatchItem
	Outcome *Outcome
	Err     error
}

// BatchOptions tunes a batch run.
type BatchOptions struct {
	Concurrency   int
	BoundaryLayer string
}

// ReadManifest loads a CSV or XLSX batch manifest.
func ReadManifest(ctx context.Context, path string) ([]BatchItem, error) {
	tbl, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require(ColPropertyID, ColBoundary); err != nil {
		return nil, eris.Wrapf(err, "placer: manifest %s", path)
	}

	base := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	items := make([]BatchItem, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		item := BatchItem{
			PropertyID: tbl.Value(row, ColPropertyID),
			Boundary:   resolve(tbl.Value(row, ColBoundary)),
		}
		if item.Boundary == "" {
			return nil, eris.Errorf("placer: manifest row %d: boundary is empty", i+2)
		}
		for _, col := range []string{ColSplit1, ColSplit2} {
			if p := tbl.Value(row, col); p != "" {
				item.Split = append(item.Split, resolve(p))
			}
		}
		if v := tbl.Value(row, ColFlowGPD); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "placer: manifest row %d: flow_gpd", i+2)
			}
			item.FlowGPD = f
		}
		d, err := dwelling(tbl, row)
		if err != nil {
			return nil, eris.Wrapf(err, "placer: manifest row %d", i+2)
		}
		item.Dwelling = d
		items = append(items, item)
	}
	return items, nil
}

func dwelling(tbl *fetcher.Table, row []string) (*requirements.SizingInput, error) {
	beds := tbl.Value(row, ColBedrooms)
	sqft := tbl.Value(row, ColBuildingSqft)
	if beds == "" && sqft == "" {
		return nil, nil
	}
	var in requirements.SizingInput
	var err error
	if in.Bedrooms, err = strconv.Atoi(beds); err != nil {
		return nil, eris.Wrap(err, "bedrooms")
	}
	if in.BuildingSqft, err = strconv.Atoi(strings.ReplaceAll(sqft, ",", "")); err != nil {
		return nil, eris.Wrap(err, "building_sqft")
	}
	if h := tbl.Value(row, ColHomes); h != "" {
		if in.Homes, err = strconv.Atoi(h); err != nil {
			return nil, eris.Wrap(err, "homes")
		}
	}
	if c := tbl.Value(row, ColCommercial); c != "" {
		if in.Commercial, err = strconv.ParseBool(c); err != nil {
			return nil, eris.Wrap(err, "commercial")
		}
	}
	return &in, nil
}

// Batch runs every item with bounded concurrency. A failing item is
// reported in its BatchResult and does not stop the others. Runs are saved
// in one call once all items finish.
func (s *Service) Batch(ctx context.Context, items []BatchItem, opts BatchOptions) ([]BatchResult, error) {
	results := make([]BatchResult, len(items))
	if len(items) == 0 {
		s.log.Info("no batch items")
		return results, nil
	}
	concurrency := max(opts.Concurrency, 1)
	layer := opts.BoundaryLayer
	if layer == "" {
		layer = cad.DefaultBoundaryLayer
	}

	s.log.Info("processing batch", zap.Int("items", len(items)), zap.Int("concurrency", concurrency))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	runs := make([]*store.Run, len(items))
	var succeeded, failed atomic.Int64

	for i, item := range items {
		results[i].Item = item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log := s.log.With(zap.String("property_id", item.PropertyID))

			req, err := loadRequest(item, layer)
			if err == nil {
				var out Outcome
				out, runs[i], err = s.evaluate(req)
				if err == nil {
					results[i].Outcome = &out
				}
			}
			if err != nil {
				failed.Add(1)
				results[i].Err = err
				log.Warn("batch item failed", zap.Error(err))
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "placer: batch")
	}

	s.log.Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)

	if s.runs == nil {
		return results, nil
	}
	var batch []store.Run
	for i, r := range runs {
		if r == nil {
			continue
		}
		batch = append(batch, *r)
		results[i].Outcome.RunID = r.ID.String()
	}
	if len(batch) == 0 {
		return results, nil
	}
	if _, err := s.runs.SaveRuns(ctx, batch); err != nil {
		for i := range results {
			if results[i].Outcome != nil {
				results[i].Outcome.RunID = ""
			}
		}
		return results, eris.Wrap(err, "placer: save batch runs")
	}
	return results, nil
}

func loadRequest(item BatchItem, layer string) (Request, error) {
	boundary, err := cad.LoadBoundary(item.Boundary, layer)
	if err != nil {
		return Request{}, err
	}
	req := Request{
		PropertyID: item.PropertyID,
		Boundary:   boundary,
		FlowGPD:    item.FlowGPD,
		Dwelling:   item.Dwelling,
	}
	for _, p := range item.Split {
		b, err := cad.LoadBoundary(p, layer)
		if err != nil {
			return Request{}, err
		}
		req.Split = append(req.Split, b)
	}
	return req, nil
}
