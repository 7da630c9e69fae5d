// Package keys builds the Redis keys for cached lookups.
package keys

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key is "<layer>:<res>:<cell>:q=<readable query>:f=<hash of query>". The
// readable part is truncated; the hash keeps truncated queries distinct.
func Key(layer string, res int, cell, query string) string {
	q := normalize(query)
	safe := sanitize(q, true)

	const maxQueryTextLen = 120
	if len(safe) > maxQueryTextLen {
		safe = safe[:maxQueryTextLen]
	}
	return fmt.Sprintf("%s:%d:%s:q=%s:f=%016x", sanitize(strings.TrimSpace(layer), false), res, cell, safe, xxhash.Sum64String(q))
}

// IndexKey names the set of every Key cached under one cell.
func IndexKey(layer string, res int, cell string) string {
	return fmt.Sprintf("idx:%s:%d:%s", sanitize(strings.TrimSpace(layer), false), res, cell)
}

// POIQuery is the query text for a POI lookup. Coordinates are rounded to
// five decimals (about one meter) so float noise does not split entries.
func POIQuery(placeType string, radiusMeters int, lat, lon float64) string {
	return strings.Join([]string{
		"type=" + strings.ToLower(strings.TrimSpace(placeType)),
		"r=" + strconv.Itoa(radiusMeters),
		"lat=" + strconv.FormatFloat(lat, 'f', 5, 64),
		"lon=" + strconv.FormatFloat(lon, 'f', 5, 64),
	}, " ")
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sanitize(s string, allowEq bool) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-' || r == '.':
			out = r
		case r == '=' && allowEq:
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
