package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/millennium/areamatch/internal/core/observability"
	"github.com/millennium/areamatch/internal/geo"
)

const DefaultOverpassURL = "https://overpass.kumi.systems/api/interpreter"

// Overpass finds places through an Overpass API interpreter endpoint.
type Overpass struct {
	logger   *slog.Logger
	client   *http.Client
	endpoint string
	catalog  *Catalog
	bounds   geo.Bounds
	timeout  time.Duration
	now      func() time.Time
}

type OverpassOptions struct {
	Endpoint string
	Catalog  *Catalog
	Bounds   geo.Bounds
	// Timeout is passed to the interpreter as [timeout:N] and bounds the call.
	Timeout time.Duration
}

func NewOverpass(logger *slog.Logger, client *http.Client, opts OverpassOptions) *Overpass {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultOverpassURL
	}
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Bounds == (geo.Bounds{}) {
		opts.Bounds = geo.Azerbaijan
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	return &Overpass{
		logger:   logger,
		client:   client,
		endpoint: opts.Endpoint,
		catalog:  opts.Catalog,
		bounds:   opts.Bounds,
		timeout:  opts.Timeout,
		now:      time.Now,
	}
}

var _ Finder = (*Overpass)(nil)

// Find returns places of q.Type around the query point. Points outside the
// service bounds yield no places and no upstream call.
func (o *Overpass) Find(ctx context.Context, q Query) ([]Place, error) {
	if !o.bounds.Contains(q.Lat, q.Lon) {
		return []Place{}, nil
	}
	placeType, spec := o.catalog.Spec(q.Type)
	query := BuildQuery(spec, q.Lat, q.Lon, q.RadiusM, o.timeout)

	start := o.now()
	places, err := o.post(ctx, query, placeType, spec.Subway)
	observability.ObserveUpstream("overpass", err, time.Since(start).Seconds())
	observability.ObservePOILookup(placeType, err)
	if err != nil {
		return nil, fmt.Errorf("overpass %s: %w", placeType, err)
	}
	o.logger.Debug("overpass lookup",
		"type", placeType,
		"radius_m", q.RadiusM,
		"places", len(places),
		"duration_ms", time.Since(start).Milliseconds())
	return places, nil
}

func (o *Overpass) post(ctx context.Context, query, placeType string, subway bool) ([]Place, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	var body overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return parseElements(body.Elements, placeType, subway), nil
}

// BuildQuery renders the Overpass QL for a type spec around (lat, lon).
func BuildQuery(spec TypeSpec, lat, lon float64, radiusM int, timeout time.Duration) string {
	around := fmt.Sprintf("(around:%d,%s,%s);", radiusM, fmtCoord(lat), fmtCoord(lon))

	var parts []string
	if spec.Subway {
		for _, kind := range []string{"railway", "public_transport"} {
			parts = append(parts,
				`node["`+kind+`"="station"]["station"="subway"]`+around,
				`way["`+kind+`"="station"]["station"="subway"]`+around)
		}
	} else {
		for _, t := range spec.ParsedTags() {
			parts = append(parts, fmt.Sprintf(`node[%q=%q]`, t.Key, t.Value)+around)
		}
	}
	secs := int(math.Ceil(timeout.Seconds()))
	if secs <= 0 {
		secs = 8
	}
	return fmt.Sprintf("[out:json][timeout:%d];(%s); out center;", secs, strings.Join(parts, " "))
}

func fmtCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

type overpassResponse struct {
	Elements []element `json:"elements"`
}

type point struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type element struct {
	Type   string            `json:"type"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *point            `json:"center"`
	Tags   map[string]string `json:"tags"`
}

func (e element) coords() (float64, float64, bool) {
	switch e.Type {
	case "node":
		if e.Lat != nil && e.Lon != nil {
			return *e.Lat, *e.Lon, true
		}
	case "way", "relation":
		if e.Center != nil && e.Center.Lat != nil && e.Center.Lon != nil {
			return *e.Center.Lat, *e.Center.Lon, true
		}
	}
	return 0, 0, false
}

type coordKey struct{ lat, lon float64 }

func parseElements(elems []element, placeType string, subway bool) []Place {
	out := make([]Place, 0, len(elems))
	seenCoords := make(map[coordKey]struct{}, len(elems))
	seenNames := make(map[string]struct{})

	for _, e := range elems {
		lat, lon, ok := e.coords()
		if !ok {
			continue
		}
		ck := coordKey{geo.Round(lat, 5), geo.Round(lon, 5)}
		if _, dup := seenCoords[ck]; dup {
			continue
		}
		seenCoords[ck] = struct{}{}

		name := displayName(e.Tags, placeType)
		if subway {
			if !subwayTagged(e.Tags) {
				continue
			}
			name = NormalizeStation(name)
			if excludedStation(name) {
				continue
			}
			nk := strings.TrimSpace(strings.ToLower(name))
			if _, dup := seenNames[nk]; dup {
				continue
			}
			seenNames[nk] = struct{}{}
		}

		out = append(out, Place{
			Name:     name,
			Geometry: Geometry{Location: Location{Lat: lat, Lng: lon}},
			Tags:     e.Tags,
		})
	}
	return out
}

func displayName(tags map[string]string, placeType string) string {
	if n := tags["name"]; n != "" {
		return n
	}
	if b := tags["brand"]; b != "" {
		return b
	}
	return titleCase(placeType)
}

func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
