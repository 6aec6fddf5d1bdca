package selection

import (
	"math"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Summary statuses.
const (
	StatusSuccess      = "SUCCESS"
	StatusSuccessSplit = "SUCCESS (SPLIT SYSTEM)"
	StatusFailed       = "FAILED"
)

// FieldSummary describes one placed drainfield.
type FieldSummary struct {
	Product       string  `json:"product"`
	Pattern       string  `json:"pattern"`
	CreditSqft    float64 `json:"credit_sqft"`
	NumPieces     int     `json:"num_pieces"`
	IsRectangular bool    `json:"is_rectangular"`
	Rotation      float64 `json:"rotation"`
	OffsetX       float64 `json:"offset_x"`
	OffsetY       float64 `json:"offset_y"`
}

// Summary is a display-ready view of a Result.
type Summary struct {
	Status           string        `json:"status"`
	ConfigType       string        `json:"config_type,omitempty"`
	Field            *FieldSummary `json:"drainfield,omitempty"`
	Field1           *FieldSummary `json:"drainfield_1,omitempty"`
	Field2           *FieldSummary `json:"drainfield_2,omitempty"`
	FlowGPD          float64       `json:"flow_gpd,omitempty"`
	RequiredSqft     float64       `json:"required_sqft,omitempty"`
	RequiredSqftEach float64       `json:"required_sqft_each,omitempty"`
	Reason           string        `json:"reason,omitempty"`
	Message          string        `json:"message,omitempty"`
	Attempted        []string      `json:"attempted"`
}

// Summarize flattens r for display.
func Summarize(r Result) Summary {
	attempted := make([]string, len(r.Attempted))
	for i, t := range r.Attempted {
		attempted[i] = string(t)
	}

	if !r.Success {
		reason, msg := r.Reason, r.Message
		if reason == "" {
			reason = "unknown"
		}
		if msg == "" {
			msg = "Configuration could not be placed"
		}
		return Summary{Status: StatusFailed, Reason: reason, Message: msg, Attempted: attempted}
	}

	s := Summary{
		ConfigType: string(r.ConfigType),
		FlowGPD:    r.FlowGPD,
		Attempted:  attempted,
	}
	if r.Split != nil {
		s.Status = StatusSuccessSplit
		s.RequiredSqftEach = r.RequiredSqftEach
		s.Field1 = summarizeField(r.Split.First)
		s.Field2 = summarizeField(r.Split.Second)
		return s
	}
	s.Status = StatusSuccess
	s.RequiredSqft = r.RequiredSqft
	if r.Placement != nil {
		s.Field = summarizeField(*r.Placement)
	}
	return s
}

func summarizeField(p Placement) *FieldSummary {
	return &FieldSummary{
		Product:       cases.Upper(language.Und).String(p.Product),
		Pattern:       p.Pattern,
		CreditSqft:    p.Metadata.CreditSqft,
		NumPieces:     p.Metadata.NumPieces,
		IsRectangular: p.Metadata.IsRectangular,
		Rotation:      p.Rotation,
		OffsetX:       round2(p.OffsetX),
		OffsetY:       round2(p.OffsetY),
	}
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}
