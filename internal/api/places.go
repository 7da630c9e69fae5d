package api

import (
	"net/http"
	"strings"

	"github.com/millennium/areamatch/internal/geo"
	"github.com/millennium/areamatch/internal/places"
)

const (
	DefaultPlacesRadiusM = 2000
	MetroRadiusM         = 20000
)

func (a *API) places(w http.ResponseWriter, r *http.Request) {
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
	placeType := strings.TrimSpace(r.URL.Query().Get("type"))
	if placeType == "" {
		placeType = a.catalog.Default
	}

	ps, err := a.finder.Find(r.Context(), places.Query{Type: placeType, Lat: lat, Lon: lon, RadiusM: DefaultPlacesRadiusM})
	if err != nil {
		a.log.WarnContext(r.Context(), "places lookup failed", "type", placeType, "err", err)
		ps = []places.Place{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": ps, "count": len(ps)})
}

type allPlacesRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    *int     `json:"radius"`
}

func (a *API) allPlaces(w http.ResponseWriter, r *http.Request) {
	var req allPlacesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	center := geo.LatLng{
		Lat: orDefault(req.Latitude, a.center.Lat),
		Lon: orDefault(req.Longitude, a.center.Lon),
	}
	radius := orDefault(req.Radius, DefaultPlacesRadiusM)
	if radius <= 0 || radius > MetroRadiusM {
		writeError(w, http.StatusBadRequest, "radius must be between 1 and 20000")
		return
	}
	if !a.bounds.Contains(center.Lat, center.Lon) {
		writeJSON(w, http.StatusOK, map[string]any{
			"places": map[string][]places.Place{},
			"center": center,
			"error":  "Location outside Azerbaijan",
		})
		return
	}

	all, err := places.FetchAll(r.Context(), a.log, a.finder, center.Lat, center.Lon, a.catalog.Overview, radius, a.workers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for alias, target := range a.catalog.Mirrors {
		if ps, ok := all[target]; ok {
			all[alias] = ps
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"places": all, "center": center})
}

func (a *API) metroStations(w http.ResponseWriter, r *http.Request) {
	ps, err := a.finder.Find(r.Context(), places.Query{
		Type:    "metro",
		Lat:     a.center.Lat,
		Lon:     a.center.Lon,
		RadiusM: MetroRadiusM,
	})
	if err != nil {
		a.log.WarnContext(r.Context(), "metro lookup failed", "err", err)
		writeJSON(w, http.StatusOK, map[string]any{"stations": []places.Place{}, "count": 0, "error": err.Error()})
		return
	}

	seen := make(map[string]struct{}, len(ps))
	stations := make([]places.Place, 0, len(ps))
	for _, p := range ps {
		key := strings.ToLower(strings.TrimSpace(p.Name))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		stations = append(stations, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"stations": stations, "count": len(stations)})
}
