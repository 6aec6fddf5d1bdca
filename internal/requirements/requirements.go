// Package requirements holds the regulatory lookup tables: sewage flow by
// bedrooms and building size, drainfield area by flow and configuration,
// and tank sizing.
package requirements

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/fetcher"
)

// Table base names. Each is read from <name>.csv, or <name>.xlsx when no
// CSV is present.
const (
	FlowTableName       = "fdep_sewage_flows"
	DrainfieldTableName = "fdep_drainfield_configs"
	TankTableName       = "fdep_tank_sizing"
)

// Tables bundles every lookup table loaded from one directory.
type Tables struct {
	Flow       *FlowTable
	Drainfield *DrainfieldTable
	Tank       *TankTable
}

// Load reads all three tables from dir.
func Load(ctx context.Context, dir string) (*Tables, error) {
	log := zap.L().With(zap.String("component", "requirements"))

	flowTbl, err := readNamed(ctx, dir, FlowTableName)
	if err != nil {
		return nil, err
	}
	flow, err := NewFlowTable(flowTbl)
	if err != nil {
		return nil, err
	}

	dfTbl, err := readNamed(ctx, dir, DrainfieldTableName)
	if err != nil {
		return nil, err
	}
	df, err := NewDrainfieldTable(dfTbl)
	if err != nil {
		return nil, err
	}

	tankTbl, err := readNamed(ctx, dir, TankTableName)
	if err != nil {
		return nil, err
	}
	tank, err := NewTankTable(tankTbl)
	if err != nil {
		return nil, err
	}

	log.Info("requirements tables loaded",
		zap.String("dir", dir),
		zap.Int("flow_rows", flow.Len()),
		zap.Int("drainfield_rows", df.Len()),
		zap.Int("tank_rows", tank.Len()),
	)
	return &Tables{Flow: flow, Drainfield: df, Tank: tank}, nil
}

func readNamed(ctx context.Context, dir, name string) (*fetcher.Table, error) {
	for _, ext := range []string{".csv", ".xlsx"} {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return fetcher.ReadTable(ctx, path)
		}
	}
	return nil, eris.Errorf("requirements: %s table not found in %s", name, dir)
}

// intCell parses a numeric cell. Spreadsheet exports may carry "300.0".
func intCell(t *fetcher.Table, row []string, col string) (int, error) {
	raw := strings.ReplaceAll(t.Value(row, col), ",", "")
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "requirements: column %s value %q", col, raw)
	}
	return int(f), nil
}
