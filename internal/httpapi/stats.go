package httpapi

import "net/http"

type statsResponse struct {
	TotalNotes   uint64 `json:"total_notes"`
	DistinctTags uint64 `json:"total_tags"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.Store.Stats(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to read stats")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalNotes:   st.TotalNotes,
		DistinctTags: st.DistinctTags,
	})
}
