package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/millennium/areamatch/internal/events"
	"github.com/millennium/areamatch/internal/listings"
	"github.com/millennium/areamatch/internal/logger"
	"github.com/millennium/areamatch/internal/scoring"
)

func (a *API) addHouse(w http.ResponseWriter, r *http.Request) {
	var d listings.Draft
	if err := decodeBody(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	l, err := a.store.Add(r.Context(), d)
	switch {
	case errors.Is(err, listings.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, listings.ErrOutOfBounds):
		writeError(w, http.StatusBadRequest, "Location must be within Azerbaijan bounds")
		return
	case err != nil:
		a.log.ErrorContext(r.Context(), "add listing failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to save house")
		return
	}

	if a.pub != nil {
		a.pub.Publish(events.ListingEvent{
			Type:      events.TypeListingCreated,
			ListingID: l.ID,
			Lat:       l.Latitude,
			Lon:       l.Longitude,
			Price:     l.Price,
			TS:        l.CreatedAt,
			RequestID: logger.RequestID(r.Context()),
		})
	}
	a.log.InfoContext(r.Context(), "listing added", "id", l.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "house": l})
}

func (a *API) listHouses(w http.ResponseWriter, r *http.Request) {
	ls, err := a.store.List(r.Context())
	if err != nil {
		a.log.ErrorContext(r.Context(), "list listings failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to load houses")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"houses": ls, "count": len(ls)})
}

func (a *API) getHouse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	l, err := a.store.Get(r.Context(), id)
	switch {
	case listings.IsNotFound(err):
		writeError(w, http.StatusNotFound, "House not found")
		return
	case err != nil:
		a.log.ErrorContext(r.Context(), "get listing failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to load house")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"house": l})
}

type searchRequest struct {
	MinPrice     float64              `json:"min_price"`
	MaxPrice     *float64             `json:"max_price"`
	Requirements scoring.Requirements `json:"requirements"`
}

func (a *API) searchHouses(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MaxPrice != nil && *req.MaxPrice < req.MinPrice {
		writeError(w, http.StatusBadRequest, "max_price must not be below min_price")
		return
	}
	q := listings.SearchQuery{MinPrice: req.MinPrice, MaxPrice: req.MaxPrice, Requirements: req.Requirements}
	matches, err := a.search.Search(r.Context(), q)
	if err != nil {
		a.log.ErrorContext(r.Context(), "search failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"houses": matches, "count": len(matches)})
}
