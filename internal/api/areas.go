package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/millennium/areamatch/internal/geo"
	"github.com/millennium/areamatch/internal/hexagon"
	"github.com/millennium/areamatch/internal/scoring"
)

// MaxGridSize bounds evaluation cost; each side multiplies scored points.
const MaxGridSize = 15

const DefaultOverlayZoom = 14.0

type evaluateRequest struct {
	Latitude     *float64             `json:"latitude"`
	Longitude    *float64             `json:"longitude"`
	Requirements scoring.Requirements `json:"requirements"`
	GridSize     *int                 `json:"grid_size"`
}

func validGrid(n int) error {
	if n < 1 || n > MaxGridSize {
		return fmt.Errorf("grid_size must be between 1 and %d", MaxGridSize)
	}
	return nil
}

func (a *API) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	center := geo.LatLng{
		Lat: orDefault(req.Latitude, a.center.Lat),
		Lon: orDefault(req.Longitude, a.center.Lon),
	}
	grid := orDefault(req.GridSize, scoring.DefaultGridSize)
	if err := validGrid(grid); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !a.bounds.Contains(center.Lat, center.Lon) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Location must be within Azerbaijan bounds",
			"bounds": a.bounds,
		})
		return
	}

	locs, err := a.eval.Evaluate(r.Context(), center, req.Requirements, grid)
	if err != nil {
		a.log.ErrorContext(r.Context(), "evaluate failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"center":    center,
		"locations": locs,
	})
}

// overlay renders an evaluated grid as colored hexagons. Requirement
// weights come from query parameters named after the requirement keys.
func (a *API) overlay(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat", a.center.Lat)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := queryFloat(r, "lon", a.center.Lon)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	zoom, err := queryFloat(r, "zoom", DefaultOverlayZoom)
	if err != nil || zoom < 0 || zoom > 22 {
		writeError(w, http.StatusBadRequest, "zoom must be between 0 and 22")
		return
	}
	rotation, err := queryFloat(r, "rotation", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	grid, err := queryInt(r, "grid_size", scoring.DefaultGridSize)
	if err == nil {
		err = validGrid(grid)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := scoring.Requirements{}
	for _, st := range a.catalog.Scored() {
		wt, err := queryInt(r, st.Requirement, 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if wt > 0 {
			req[st.Requirement] = wt
		}
	}
	if !a.bounds.Contains(lat, lon) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Location must be within Azerbaijan bounds",
			"bounds": a.bounds,
		})
		return
	}

	locs, err := a.eval.Evaluate(r.Context(), geo.LatLng{Lat: lat, Lon: lon}, req, grid)
	if err != nil {
		a.log.ErrorContext(r.Context(), "overlay evaluate failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	proj := hexagon.MapPoints{}
	scale := hexagon.ZoomScale(zoom)
	canvas := hexagon.NewGeoJSONCanvas(proj)
	var renderer hexagon.Renderer
	for _, l := range locs {
		cell := hexagon.NewCell(l.Lat, l.Lon, rotation, l.Category)
		renderer.Draw(canvas, hexagon.NewOverlay(cell, proj, scale), map[string]any{
			"score": l.Score,
			"h3":    l.Cell,
		})
	}

	body, err := json.Marshal(canvas)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
