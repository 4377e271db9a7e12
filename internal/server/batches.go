// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pdiddy/research-podcast/internal/catalog"
	"github.com/pdiddy/research-podcast/pkg/types"
)

type batchList struct {
	Batches []types.BatchRecord `json:"batches"`
	Total   int                 `json:"total"`
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeDetail(w, http.StatusNotFound, "Batch history is disabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeDetail(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	list, err := s.history.List(r.Context(), limit)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error listing batches: %v", err))
		return
	}
	if list == nil {
		list = []types.BatchRecord{}
	}
	writeJSON(w, http.StatusOK, batchList{Batches: list, Total: len(list)})
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeDetail(w, http.StatusNotFound, "Batch history is disabled")
		return
	}

	rec, err := s.history.Get(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rec)
	case errors.Is(err, catalog.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Batch not found")
	default:
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error reading batch: %v", err))
	}
}
