package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/redbay-eng/drainfield-placer/internal/cad"
	"github.com/redbay-eng/drainfield-placer/internal/catalog"
	"github.com/redbay-eng/drainfield-placer/internal/geometry"
	"github.com/redbay-eng/drainfield-placer/internal/placer"
	"github.com/redbay-eng/drainfield-placer/internal/requirements"
	"github.com/redbay-eng/drainfield-placer/internal/selection"
	"github.com/redbay-eng/drainfield-placer/internal/store"
)

// boundaryInput accepts a boundary either as a point ring or as a CAD
// document holding a boundary polyline.
type boundaryInput struct {
	Boundary geometry.Polygon `json:"boundary"`
	CAD      *cad.Document    `json:"cad,omitempty"`
}

func (b boundaryInput) polygon(layer string) (geometry.Polygon, error) {
	if !b.Boundary.IsEmpty() || b.CAD == nil {
		return b.Boundary, nil
	}
	return cad.ParseBoundary(*b.CAD, layer)
}

type selectRequest struct {
	PropertyID string `json:"property_id"`
	boundaryInput
	Split        []geometry.Polygon `json:"split,omitempty"`
	FlowGPD      float64            `json:"flow_gpd"`
	Bedrooms     int                `json:"bedrooms"`
	BuildingSqft int                `json:"building_sqft"`
	Homes        int                `json:"homes"`
	Commercial   bool               `json:"commercial"`
}

func (r selectRequest) dwelling() *requirements.SizingInput {
	if r.Bedrooms == 0 && r.BuildingSqft == 0 {
		return nil
	}
	return &requirements.SizingInput{
		Bedrooms:     r.Bedrooms,
		BuildingSqft: r.BuildingSqft,
		Homes:        r.Homes,
		Commercial:   r.Commercial,
	}
}

type placeRequest struct {
	PropertyID string `json:"property_id"`
	boundaryInput
	RequiredSqft float64 `json:"required_sqft"`
	ConfigType   string  `json:"config_type"`
}

// outcomeResponse adds the placed CAD document when the request carried one.
type outcomeResponse struct {
	placer.Outcome
	CAD *cad.Document `json:"cad,omitempty"`
}

func (s *Server) respondOutcome(w http.ResponseWriter, out placer.Outcome, doc *cad.Document) {
	resp := outcomeResponse{Outcome: out}
	if doc != nil && out.Result.Success {
		var pls []cad.Placement
		for _, p := range out.Result.Placements() {
			pls = append(pls, p.CAD())
		}
		placed := cad.Place(*doc, pls...)
		resp.CAD = &placed
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	boundary, err := req.polygon(s.opts.BoundaryLayer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.svc.Select(r.Context(), placer.Request{
		PropertyID: req.PropertyID,
		Boundary:   boundary,
		Split:      req.Split,
		FlowGPD:    req.FlowGPD,
		Dwelling:   req.dwelling(),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.respondOutcome(w, out, req.CAD)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req placeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	boundary, err := req.polygon(s.opts.BoundaryLayer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var t selection.ConfigType
	if req.ConfigType != "" {
		if t, err = selection.ParseConfigType(req.ConfigType); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.RequiredSqft <= 0 {
		writeError(w, http.StatusBadRequest, "required_sqft must be positive")
		return
	}

	out, err := s.svc.Place(r.Context(), placer.PlaceRequest{
		PropertyID:   req.PropertyID,
		Boundary:     boundary,
		RequiredSqft: req.RequiredSqft,
		ConfigType:   t,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.respondOutcome(w, out, req.CAD)
}

func (s *Server) handleSizing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bedrooms     int  `json:"bedrooms"`
		BuildingSqft int  `json:"building_sqft"`
		Homes        int  `json:"homes"`
		Commercial   bool `json:"commercial"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sz, err := s.svc.Size(requirements.SizingInput{
		Bedrooms:     req.Bedrooms,
		BuildingSqft: req.BuildingSqft,
		Homes:        req.Homes,
		Commercial:   req.Commercial,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sz)
}

type productResponse struct {
	ID             string              `json:"id"`
	Width          float64             `json:"width"`
	Height         float64             `json:"height"`
	CreditPerPiece float64             `json:"credit_per_piece"`
	Patterns       map[string][]string `json:"patterns"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	products := s.catalog.Products()
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		pr := productResponse{
			ID:             p.ID,
			Width:          p.Width,
			Height:         p.Height,
			CreditPerPiece: p.CreditPerPiece,
			Patterns:       make(map[string][]string, len(catalog.Classes)),
		}
		for _, class := range catalog.Classes {
			names := []string{}
			for _, pat := range s.catalog.Patterns(p.ID, class) {
				names = append(names, pat.Name)
			}
			pr.Patterns[string(class)] = names
		}
		resp = append(resp, pr)
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": resp, "pattern_count": s.catalog.Len()})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runs := s.svc.Runs()
	if runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	run, err := runs.GetRun(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.svc.Runs()
	if runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{
		PropertyID: q.Get("property_id"),
		Status:     q.Get("status"),
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+key)
				return
			}
			*dst = n
		}
	}
	list, err := runs.ListRuns(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []store.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": list})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var verr *geometry.ValidationError
	var ierr *placer.InputError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusUnprocessableEntity, verr.Message)
	case errors.As(err, &ierr), errors.Is(err, placer.ErrNoFlow):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, placer.ErrNoTables):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
