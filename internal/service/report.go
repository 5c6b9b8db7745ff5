package service

import (
	"github.com/agbru/qsag/internal/qpoly"
	"github.com/agbru/qsag/pkg/models"
)

// Summary converts r into its JSON document. The full map is included only
// when includeMap is set.
func (r *Result) Summary(req qpoly.Request, includeMap bool) models.SagSummary {
	s := models.SagSummary{
		Family:     r.Family,
		Samples:    req.Samples,
		RhoMax:     req.RhoMax,
		Terms:      req.Coefs.Active(),
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
		Stats:      Statistics(r.Stats),
		Coefs:      map[int]float64(req.Coefs),
	}
	if includeMap && r.Sag != nil {
		rows, _ := r.Sag.Dims()
		s.Map = make([][]float64, rows)
		for i := range s.Map {
			s.Map[i] = append([]float64(nil), r.Sag.RawRowView(i)...)
		}
	}
	return s
}

// Statistics converts qpoly.SagStats into its JSON document.
func Statistics(st qpoly.SagStats) models.SagStatistics {
	return models.SagStatistics{
		Min:    st.Min,
		Max:    st.Max,
		PV:     st.PV,
		Mean:   st.Mean,
		RMS:    st.RMS,
		Points: st.Points,
	}
}

// CacheReport converts a cache snapshot into its JSON document.
func CacheReport(st qpoly.CacheStats) models.CacheReport {
	return models.CacheReport{
		Family:     st.Family,
		Hits:       st.Hits,
		Misses:     st.Misses,
		HitRate:    st.HitRate(),
		GridBuilds: st.GridBuilds,
		PBuilds:    st.PBuilds,
		QBuilds:    st.QBuilds,
		Entries:    st.Grids + st.PEntries + st.QEntries,
		Bytes:      st.Bytes,
	}
}
