/*
Package server implements msgpack IPC for morphological segmentation.

Clients talk to the server over stdin/stdout. Every message in either
direction is one msgpack map preceded by its length as a 4-byte big-endian
unsigned integer. The server answers every request with exactly one frame, in
request order, and keeps serving after a failed request.

# IPC

Once the trie is trained the server announces itself:

	{"status": "ready"}

Segmentation is the default action:

	{"id": "req_001", "w": "walked"}

The response carries the atoms, the per-boundary probabilities, which
boundaries pass the threshold, and the segmented form:

	{"id": "req_001", "a": ["w","a","l","k","e","d"], "p": [0, 0, 0.01, 0.82, 0.1],
	 "b": [false, false, false, true, false], "s": "walk+ed", "m": ["walk","ed"], "t": 412}

Setting "n" sharpens the probabilities around the configured mean first, and
"f" adds one feature vector per boundary.

Other actions:

	{"id": "tune_1", "action": "tune", "min_compound_frequency": 2, "k_most_frequent": 32}
	{"id": "morph_1", "action": "morphs", "p": "walk", "l": 10}
	{"id": "info_1", "action": "info"}

# Errors

A request that cannot be served gets an ErrorResponse with code 400 when the
request itself is at fault and 500 when the trained data is inconsistent.
*/
package server

// Actions understood by the server. An empty action means ActionSegment.
const (
	ActionSegment = "segment"
	ActionTune    = "tune"
	ActionMorphs  = "morphs"
	ActionInfo    = "info"
)

// envelope is decoded first to route a frame
type envelope struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action,omitempty"`
}

// SegmentRequest - segment one word
type SegmentRequest struct {
	ID        string   `msgpack:"id"`
	Action    string   `msgpack:"action,omitempty"`
	Word      string   `msgpack:"w"`
	Normalize bool     `msgpack:"n,omitempty"`
	Features  bool     `msgpack:"f,omitempty"`
	Threshold *float64 `msgpack:"th,omitempty"`
}

// SegmentResponse - segmentation of one word
type SegmentResponse struct {
	ID            string      `msgpack:"id"`
	Atoms         []string    `msgpack:"a"`
	Probabilities []float64   `msgpack:"p"`
	Boundaries    []bool      `msgpack:"b"`
	Segmented     string      `msgpack:"s"`
	Morphs        []string    `msgpack:"m"`
	Features      [][]float64 `msgpack:"f,omitempty"`
	TimeTaken     int64       `msgpack:"t"` // microseconds
}

// TuneRequest - change the search tunables; absent fields stay unchanged
type TuneRequest struct {
	ID                   string `msgpack:"id"`
	Action               string `msgpack:"action"`
	MinCompoundFrequency *int64 `msgpack:"min_compound_frequency,omitempty"`
	KMostFrequent        *int   `msgpack:"k_most_frequent,omitempty"`
}

// TuneResponse - tunables after the change
type TuneResponse struct {
	ID                   string `msgpack:"id"`
	Status               string `msgpack:"status"`
	MinCompoundFrequency int64  `msgpack:"min_compound_frequency"`
	KMostFrequent        int    `msgpack:"k_most_frequent"`
	SquareSize           int    `msgpack:"square_size"`
}

// MorphsRequest - list collected morphs under a prefix
type MorphsRequest struct {
	ID     string `msgpack:"id"`
	Action string `msgpack:"action"`
	Prefix string `msgpack:"p"`
	Limit  int    `msgpack:"l,omitempty"`
}

// MorphEntry - one collected morph
type MorphEntry struct {
	Morph string `msgpack:"m"`
	Count uint64 `msgpack:"c"`
	Words int    `msgpack:"w"`
}

// MorphsResponse - morphs ranked by count
type MorphsResponse struct {
	ID     string       `msgpack:"id"`
	Morphs []MorphEntry `msgpack:"m"`
	Count  int          `msgpack:"c"`
}

// InfoResponse - trained data and engine state
type InfoResponse struct {
	ID                   string `msgpack:"id"`
	Status               string `msgpack:"status"`
	Sequences            int    `msgpack:"sequences"`
	Tokens               int64  `msgpack:"tokens"`
	MinCompoundFrequency int64  `msgpack:"min_compound_frequency"`
	KMostFrequent        int    `msgpack:"k_most_frequent"`
	SquareSize           int    `msgpack:"square_size"`
	BoundaryPolicy       string `msgpack:"boundary_policy"`
	FeatureCount         int    `msgpack:"feature_count"`
	CachedWords          int    `msgpack:"cached_words"`
	Morphs               int    `msgpack:"morphs"`
	Requests             int    `msgpack:"requests"`
}

// ErrorResponse holds basic error information for any request
type ErrorResponse struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// Error codes
const (
	CodeBadRequest = 400
	CodeInternal   = 500
)
