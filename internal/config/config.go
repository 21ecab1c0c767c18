// Package config defines the canonical, JSON-serializable configuration model
// for the books pipeline. It is intentionally small, explicit, and dependency-
// free so that pipelines can be loaded from disk (or other sources) and passed
// through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/pipelines/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job": "books",
//	  "source": {
//	    "metadata": { "path": "dataset/metadata.csv" },
//	    "reviews":  { "path": "dataset/reviews.csv" }
//	  },
//	  "parser": { "options": { "trim_space": true } },
//	  "output": { "dir": "dataset" }
//	}
package config

import "encoding/json"

// Pipeline describes one full batch run in JSON. It is the top-level object
// decoded from a pipeline file (e.g., configs/pipelines/*.json).
type Pipeline struct {
	// Job names the run; it is used for metrics labeling and log prefixes.
	Job string `json:"job"`

	// Source locates the two input files (book metadata and reviews).
	Source Source `json:"source"`

	// Parser configures how raw CSV bytes are turned into records.
	Parser Parser `json:"parser"`

	// Output describes where rollup artifacts are written.
	Output Output `json:"output"`
}

// Source identifies the two flat-file inputs of the pipeline. Both are
// required; the run aborts before touching any artifact when either is
// missing.
type Source struct {
	// Metadata is the book metadata input (one row per book).
	Metadata SourceFile `json:"metadata"`

	// Reviews is the review input (one row per review).
	Reviews SourceFile `json:"reviews"`
}

// SourceFile holds configuration for a local file input.
type SourceFile struct {
	// Path is the local filesystem path to the input file.
	Path string `json:"path"`
}

// Parser carries CSV parser settings shared by both inputs.
type Parser struct {
	// Options is a free-form map interpreted by the parser implementation.
	// Typical keys include:
	//   comma (string), trim_space (bool), header_map (object)
	Options Options `json:"options"`
}

// Output describes the artifact destination.
type Output struct {
	// Dir is the directory where rollup artifacts are written. Artifacts are
	// replaced atomically; a failed run leaves prior artifacts untouched.
	Dir string `json:"dir"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
