package report

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/koinonia-app/koinonia/core"
)

// Options are chart options as understood by the frontend charting library.
type Options = map[string]interface{}

// DefaultOptions returns a fresh copy of the default options for `chartType`.
func DefaultOptions(chartType, title string) Options {
	opts := Options{
		"responsive":          true,
		"maintainAspectRatio": false,
		"plugins": Options{
			"legend": Options{"display": true, "position": "top"},
			"tooltip": Options{
				"enabled":   true,
				"mode":      "index",
				"intersect": false,
			},
			"title": Options{"display": title != "", "text": title},
		},
	}

	switch chartType {
	case ChartBar, ChartLine:
		opts["scales"] = Options{
			"x": Options{"grid": Options{"display": false}},
			"y": Options{"beginAtZero": true, "ticks": Options{"precision": 0}},
		}
		if chartType == ChartLine {
			opts["elements"] = Options{"line": Options{"tension": 0.3}}
		}
	case ChartPie, ChartDoughnut:
		plugins := opts["plugins"].(Options)
		plugins["legend"].(Options)["position"] = "right"
		plugins["tooltip"].(Options)["mode"] = "nearest"
		if chartType == ChartDoughnut {
			opts["cutout"] = "60%"
		}
	}
	return opts
}

// MergeOptions deep-merges `overrides` into a copy of `defaults`: nested objects merge recursively,
// scalars & arrays replace, and a null override removes the key. Neither argument is modified.
func MergeOptions(defaults, overrides Options) Options {
	merged := copyOptions(defaults)
	mergeInto(merged, overrides)
	return merged
}

func mergeInto(dst, src Options) {
	for k, v := range src {
		if v == nil {
			delete(dst, k)
			continue
		}
		srcMap, ok := v.(Options)
		if !ok {
			dst[k] = copyValue(v)
			continue
		}
		dstMap, ok := dst[k].(Options)
		if !ok {
			dstMap = Options{}
		}
		mergeInto(dstMap, srcMap)
		dst[k] = dstMap
	}
}

func copyOptions(opts Options) Options {
	if opts == nil {
		return Options{}
	}
	cp := make(Options, len(opts))
	for k, v := range opts {
		cp[k] = copyValue(v)
	}
	return cp
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Options:
		return copyOptions(val)
	case []interface{}:
		cp := make([]interface{}, len(val))
		for i, item := range val {
			cp[i] = copyValue(item)
		}
		return cp
	case []string:
		return append([]string(nil), val...)
	default:
		return val
	}
}

// ParseOptions decodes caller overrides: a JSON object. Empty input yields no overrides.
func ParseOptions(s string) (Options, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var opts Options
	dec := json.NewDecoder(bytes.NewBufferString(s))
	dec.UseNumber()
	if err := dec.Decode(&opts); err != nil || opts == nil {
		return nil, core.NewFieldError("options", "options must be a JSON object")
	}
	if dec.More() {
		return nil, core.NewFieldError("options", "options must be a JSON object")
	}
	return opts, nil
}
