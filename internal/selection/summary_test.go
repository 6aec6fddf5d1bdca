package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbay-eng/drainfield-placer/internal/catalog"
)

func TestSummarize_Single(t *testing.T) {
	r := Result{
		Success:    true,
		ConfigType: TrenchATU,
		Placement: &Placement{
			Product:  "arc24",
			Pattern:  "trench_3x4",
			Metadata: catalog.Metadata{CreditSqft: 720, NumPieces: 12, IsRectangular: true},
			Rotation: 90,
			OffsetX:  12.3456,
			OffsetY:  -0.001,
		},
		FlowGPD:      800,
		RequiredSqft: 750,
		Attempted:    []ConfigType{Trench, Bed, TrenchATU},
	}

	s := Summarize(r)
	assert.Equal(t, StatusSuccess, s.Status)
	assert.Equal(t, "trench_atu", s.ConfigType)
	require.NotNil(t, s.Field)
	assert.Equal(t, "ARC24", s.Field.Product)
	assert.Equal(t, "trench_3x4", s.Field.Pattern)
	assert.InDelta(t, 12.35, s.Field.OffsetX, 1e-9)
	assert.Equal(t, 0.0, s.Field.OffsetY)
	assert.Equal(t, 12, s.Field.NumPieces)
	assert.True(t, s.Field.IsRectangular)
	assert.InDelta(t, 750.0, s.RequiredSqft, 1e-9)
	assert.Equal(t, []string{"trench", "bed", "trench_atu"}, s.Attempted)
	assert.Nil(t, s.Field1)
}

func TestSummarize_Split(t *testing.T) {
	r := Result{
		Success:    true,
		ConfigType: SplitBed,
		Split: &Split{
			First:  Placement{Product: "mps9", Pattern: "a", Rotation: 0},
			Second: Placement{Product: "eq36lp", Pattern: "b", Rotation: 25},
		},
		RequiredSqftEach: 500,
		Attempted:        []ConfigType{Trench, Bed, TrenchATU, BedATU, SplitTrench, SplitBed},
	}

	s := Summarize(r)
	assert.Equal(t, StatusSuccessSplit, s.Status)
	require.NotNil(t, s.Field1)
	require.NotNil(t, s.Field2)
	assert.Equal(t, "MPS9", s.Field1.Product)
	assert.Equal(t, "EQ36LP", s.Field2.Product)
	assert.InDelta(t, 25.0, s.Field2.Rotation, 1e-9)
	assert.InDelta(t, 500.0, s.RequiredSqftEach, 1e-9)
	assert.Nil(t, s.Field)
	assert.Len(t, s.Attempted, 6)
}

func TestSummarize_Failure(t *testing.T) {
	s := Summarize(Result{
		Reason:    ReasonNeedsRedesign,
		Message:   MsgNeedsRedesign,
		Attempted: []ConfigType{Trench},
	})
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, ReasonNeedsRedesign, s.Reason)
	assert.Equal(t, MsgNeedsRedesign, s.Message)
	assert.Equal(t, []string{"trench"}, s.Attempted)

	s = Summarize(Result{})
	assert.Equal(t, "unknown", s.Reason)
	assert.Equal(t, "Configuration could not be placed", s.Message)
	assert.Empty(t, s.Attempted)
}
