package ogc

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/w3w-wfs/internal/core/model"
)

// Request is a parsed WFS key-value request. Optional values are nil or
// empty when the client did not send them.
type Request struct {
	Service      string
	Version      string
	Operation    string
	TypeName     string
	BBox         *model.BoundingBox
	MaxFeatures  *int
	OutputFormat string
	SrsName      string
	Language     string

	// AcceptHeader is filled in by the HTTP layer; Parse leaves it empty.
	AcceptHeader string

	// FilterErr records why a filter parameter yielded no BBOX. It is kept
	// for logging only; a missing bbox is reported by the executor.
	FilterErr error
}

// Dialect resolves the response dialect for this request.
func (r Request) Dialect(def Dialect) Dialect {
	return DialectFor(r.Version, def)
}

// ParseValues adapts HTTP query values; the first value of a key wins.
func ParseValues(q url.Values) Request {
	params := make(map[string]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return Parse(params)
}

// Parse reads a WFS request from key-value parameters. Keys are matched
// case-insensitively; values are kept as sent. Parse never fails: values it
// cannot use are treated as absent.
func Parse(params map[string]string) Request {
	p := foldKeys(params)

	r := Request{
		Service:      p.get("service"),
		Version:      p.get("version"),
		Operation:    p.get("request"),
		TypeName:     p.first("typename", "typenames"),
		OutputFormat: p.get("outputformat"),
		SrsName:      p.first("srsname", "srs"),
		Language:     p.get("language"),
	}

	if n, ok := positiveInt(p.first("maxfeatures", "count")); ok {
		r.MaxFeatures = &n
	}

	if raw := p.get("bbox"); raw != "" {
		if b, err := model.ParseWFSBBox(raw); err == nil && b.IsValid() {
			r.BBox = &b
		}
	}
	if r.BBox == nil {
		if f := p.get("filter"); f != "" {
			fb, err := ExtractFilterBBox(f)
			if err != nil {
				r.FilterErr = err
			} else {
				r.BBox = &fb.BBox
				if r.SrsName == "" {
					r.SrsName = fb.SrsName
				}
			}
		}
	}
	return r
}

type params map[string]string

// foldKeys lower-cases keys. When two keys fold to the same name the one
// that sorts first wins, so the result does not depend on map order.
func foldKeys(in map[string]string) params {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make(params, len(in))
	for _, k := range keys {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, seen := out[lk]; !seen {
			out[lk] = in[k]
		}
	}
	return out
}

func (p params) get(key string) string {
	return strings.TrimSpace(p[key])
}

// first returns the first non-empty value among keys.
func (p params) first(keys ...string) string {
	for _, k := range keys {
		if v := p.get(k); v != "" {
			return v
		}
	}
	return ""
}

func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
