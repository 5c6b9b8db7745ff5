/*
Package models defines the JSON documents exchanged by the qsag HTTP API and
written by the JSON exporter.

These models are used for:
- **Requests**: a surface description posted to /sag.
- **Summaries**: sag statistics returned by the API and the CLI.
- **Cache reports**: per-family cache counters returned by /cache.
*/
package models

// SagRequest describes a surface to build.
type SagRequest struct {
	Family  string          `json:"family"`            // Polynomial family ("qbfs", "qcon").
	Coefs   map[int]float64 `json:"coefs"`             // Weight per polynomial order.
	Samples int             `json:"samples,omitempty"` // Grid size along each axis.
	RhoMax  float64         `json:"rho_max,omitempty"` // Pupil radius.
	// IncludeMap asks for the full sag map in the response.
	IncludeMap bool `json:"include_map,omitempty"`
}

// SagStatistics summarises a sag map over the unit pupil.
type SagStatistics struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	PV     float64 `json:"pv"`
	Mean   float64 `json:"mean"`
	RMS    float64 `json:"rms"`
	Points int     `json:"points"`
}

// SagSummary is the result of one build.
type SagSummary struct {
	Family     string          `json:"family"`
	Samples    int             `json:"samples"`
	RhoMax     float64         `json:"rho_max"`
	Terms      int             `json:"terms"`       // Number of nonzero weights.
	DurationMS float64         `json:"duration_ms"` // Build wall time in milliseconds.
	Stats      SagStatistics   `json:"stats"`
	Error      string          `json:"error,omitempty"`
	Map        [][]float64     `json:"map,omitempty"`
	Coefs      map[int]float64 `json:"coefs,omitempty"`
}

// CacheReport is a snapshot of one family cache.
type CacheReport struct {
	Family     string  `json:"family"`
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
	GridBuilds uint64  `json:"grid_builds"`
	PBuilds    uint64  `json:"p_builds"`
	QBuilds    uint64  `json:"q_builds"`
	Entries    int     `json:"entries"` // Grid, P and Q arrays held.
	Bytes      int     `json:"bytes"`
}
