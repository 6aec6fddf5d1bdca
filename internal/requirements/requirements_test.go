package requirements

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbay-eng/drainfield-placer/internal/selection"
)

const flowCSV = `bedrooms,square_footage_min,square_footage_max,flow_gpd
1,0,750,100
2,0,1200,200
3,0,2250,300
3,2251,3300,360
4,0,3300,400
`

const drainfieldCSV = `flow_gpd,configuration_name,drainfield_size,unobstructed_area
200,Trench,250,375
200,Bed,334,501
300,Trench,375,563
300, Bed ,500,750
300,Trench with ATU,282,423
400,Trench,500,750
400,Trench split in half,250,375
`

const tankCSV = `min_flow_gpd,max_flow_gpd,septic_tank_min_capacity,pump_tank_min_residential,pump_tank_min_commercial
100,300,900,150,225
301,400,1050,150,225
401,500,1200,200,300
`

func writeTables(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range map[string]string{
		FlowTableName:       flowCSV,
		DrainfieldTableName: drainfieldCSV,
		TankTableName:       tankCSV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(body), 0o644))
	}
	return dir
}

func loadTables(t *testing.T) *Tables {
	t.Helper()
	tables, err := Load(context.Background(), writeTables(t))
	require.NoError(t, err)
	return tables
}

func TestLoad(t *testing.T) {
	tables := loadTables(t)
	assert.Equal(t, 5, tables.Flow.Len())
	assert.Equal(t, 7, tables.Drainfield.Len())
	assert.Equal(t, 3, tables.Tank.Len())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), FlowTableName)
}

func TestLoad_BadCell(t *testing.T) {
	dir := writeTables(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FlowTableName+".csv"),
		[]byte("bedrooms,square_footage_min,square_footage_max,flow_gpd\ntwo,0,10,5\n"), 0o644))
	_, err := Load(context.Background(), dir)
	assert.Error(t, err)
}

func TestFlowTable_Estimate(t *testing.T) {
	flow := loadTables(t).Flow

	tests := []struct {
		name     string
		beds     int
		sqft     int
		want     int
		overflow bool
	}{
		{"within band", 3, 1800, 300, false},
		{"upper band", 3, 3000, 360, false},
		{"band edge", 2, 1200, 200, false},
		{"one step over", 2, 1201, 260, true},
		{"exactly one step", 2, 1950, 260, true},
		{"two steps", 2, 1951, 320, true},
		{"four bedrooms large", 4, 5000, 400 + 3*60, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := flow.Estimate(tt.beds, tt.sqft)
			require.NoError(t, err)
			assert.Equal(t, tt.want, est.FlowGPD)
			assert.Equal(t, tt.overflow, est.Overflow)
		})
	}

	est, err := flow.Estimate(2, 1500)
	require.NoError(t, err)
	assert.Equal(t, 1201, est.SqftMin)
	assert.Equal(t, 1500, est.SqftMax)

	_, err = flow.Flow(9, 1000)
	assert.Error(t, err)
}

func TestDrainfieldTable_Lookup(t *testing.T) {
	df := loadTables(t).Drainfield

	req, ok := df.Lookup(300, selection.Trench)
	require.True(t, ok)
	assert.Equal(t, Requirement{DrainfieldSize: 375, UnobstructedArea: 563}, req)

	// Trimmed configuration name.
	req, ok = df.Lookup(300, selection.Bed)
	require.True(t, ok)
	assert.Equal(t, 500, req.DrainfieldSize)

	// Rounds up to the next tabulated flow.
	req, ok = df.Lookup(250, selection.Trench)
	require.True(t, ok)
	assert.Equal(t, 375, req.DrainfieldSize)

	// Skips higher flows without the configuration.
	req, ok = df.Lookup(350, selection.SplitTrench)
	require.True(t, ok)
	assert.Equal(t, 250, req.DrainfieldSize)

	// Above the table uses the highest flow.
	req, ok = df.Lookup(900, selection.Trench)
	require.True(t, ok)
	assert.Equal(t, 500, req.DrainfieldSize)

	_, ok = df.Lookup(900, selection.Bed)
	assert.False(t, ok, "highest flow has no bed row")

	_, ok = df.Lookup(300, selection.SplitBedATU)
	assert.False(t, ok)

	_, ok = df.Lookup(300, selection.ConfigType("pit"))
	assert.False(t, ok)
}

func TestDrainfieldTable_AreaSource(t *testing.T) {
	var src selection.AreaSource = loadTables(t).Drainfield

	area, ok := src.RequiredArea(300, selection.TrenchATU)
	require.True(t, ok)
	assert.InDelta(t, 282.0, area, 1e-9)

	_, ok = src.RequiredArea(300, selection.BedATU)
	assert.False(t, ok)
}

func TestConfigName(t *testing.T) {
	assert.Equal(t, "Bed split in half with ATU", ConfigName(selection.SplitBedATU))
	assert.Equal(t, "", ConfigName("pit"))
}

func TestTankTable(t *testing.T) {
	tank := loadTables(t).Tank

	assert.Equal(t, 900, tank.SepticTank(250, 1))
	assert.Equal(t, 1050+3*75, tank.SepticTank(350, 3))
	assert.Equal(t, 1200, tank.SepticTank(800, 1), "above the table uses the last band")
	assert.Equal(t, 900, tank.SepticTank(50, 1), "below the table falls back")

	assert.Equal(t, 200, tank.PumpTank(450, true))
	assert.Equal(t, 300, tank.PumpTank(450, false))
	assert.Equal(t, 300, tank.PumpTank(2000, false))
	assert.Equal(t, 150, tank.PumpTank(10, true))
	assert.Equal(t, 225, tank.PumpTank(10, false))
}

func TestATUSize(t *testing.T) {
	tests := []struct {
		name        string
		beds, sqft  int
		flow        float64
		residential bool
		want        int
		ok          bool
	}{
		{"small home", 2, 1100, 0, true, 400, true},
		{"three bedroom", 3, 2250, 0, true, 400, true},
		{"four bedroom", 4, 3000, 0, true, 500, true},
		{"large area", 4, 4100, 0, true, 620, true},
		{"many bedrooms", 7, 3000, 0, true, 680, true},
		{"three bedroom large", 3, 2500, 0, true, 500, true},
		{"commercial low", 0, 0, 350, false, 400, true},
		{"commercial band", 0, 0, 760, false, 800, true},
		{"commercial edge", 0, 0, 1500, false, 1500, true},
		{"commercial over", 0, 0, 1501, false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ATUSize(tt.beds, tt.sqft, tt.flow, tt.residential)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTables_Size(t *testing.T) {
	tables := loadTables(t)

	s, err := tables.Size(SizingInput{Bedrooms: 3, BuildingSqft: 2000})
	require.NoError(t, err)
	assert.Equal(t, 300, s.Flow.FlowGPD)
	assert.Equal(t, 900, s.SepticTank)
	assert.Equal(t, 150, s.PumpTank)
	assert.True(t, s.HasATU)
	assert.Equal(t, 400, s.ATU)

	s, err = tables.Size(SizingInput{Bedrooms: 4, BuildingSqft: 3000, Homes: 2, Commercial: true})
	require.NoError(t, err)
	assert.Equal(t, 1050+150, s.SepticTank)
	assert.Equal(t, 225, s.PumpTank)
	assert.Equal(t, 400, s.ATU)

	_, err = (*Tables)(nil).Size(SizingInput{})
	assert.Error(t, err)
}
