// Package api serves the HTTP endpoints of the service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/millennium/areamatch/internal/events"
	"github.com/millennium/areamatch/internal/geo"
	"github.com/millennium/areamatch/internal/listings"
	"github.com/millennium/areamatch/internal/places"
	"github.com/millennium/areamatch/internal/scoring"
)

const maxBodyBytes = 1 << 20

type Evaluator interface {
	Evaluate(ctx context.Context, center geo.LatLng, req scoring.Requirements, gridSize int) ([]scoring.Location, error)
}

type ListingStore interface {
	Add(ctx context.Context, d listings.Draft) (listings.Listing, error)
	List(ctx context.Context) ([]listings.Listing, error)
	Get(ctx context.Context, id int64) (listings.Listing, error)
}

type Searcher interface {
	Search(ctx context.Context, q listings.SearchQuery) ([]listings.Match, error)
}

type Publisher interface {
	Publish(ev events.ListingEvent)
}

type Deps struct {
	Logger       *slog.Logger
	Finder       places.Finder
	Catalog      *places.Catalog
	Evaluator    Evaluator
	Listings     ListingStore
	Searcher     Searcher
	Publisher    Publisher
	Bounds       geo.Bounds
	Center       geo.LatLng
	FetchWorkers int
}

type API struct {
	log     *slog.Logger
	finder  places.Finder
	catalog *places.Catalog
	eval    Evaluator
	store   ListingStore
	search  Searcher
	pub     Publisher
	bounds  geo.Bounds
	center  geo.LatLng
	workers int
}

func New(d Deps) *API {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Catalog == nil {
		d.Catalog = places.DefaultCatalog()
	}
	if d.Bounds == (geo.Bounds{}) {
		d.Bounds = geo.Azerbaijan
	}
	if d.Center == (geo.LatLng{}) {
		d.Center = geo.DefaultLocation
	}
	return &API{
		log:     d.Logger,
		finder:  d.Finder,
		catalog: d.Catalog,
		eval:    d.Evaluator,
		store:   d.Listings,
		search:  d.Searcher,
		pub:     d.Publisher,
		bounds:  d.Bounds,
		center:  d.Center,
		workers: d.FetchWorkers,
	}
}

// Routes mounts every /api endpoint on r.
func (a *API) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/evaluate", a.evaluate)
		r.Get("/places", a.places)
		r.Post("/all-places", a.allPlaces)
		r.Get("/metro-stations", a.metroStations)
		r.Post("/houses", a.addHouse)
		r.Get("/houses", a.listHouses)
		r.Get("/houses/{id}", a.getHouse)
		r.Post("/houses/search", a.searchHouses)
		r.Get("/areas/overlay", a.overlay)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// queryFloat returns the named query parameter or def when absent.
func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func orDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
