package httpapi

import "net/http"

// handlePerfLatency reports the rolling stage latencies; ?reset=1 clears
// the window after reading it.
func (s *Server) handlePerfLatency(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "metrics not configured")
		return
	}
	snap := s.metrics.LatencySnapshot()
	if r.URL.Query().Get("reset") == "1" {
		s.metrics.ResetLatency()
	}
	respondJSON(w, http.StatusOK, snap)
}
