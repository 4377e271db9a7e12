// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/pdiddy/research-podcast/internal/pipeline"
	"github.com/pdiddy/research-podcast/pkg/types"
)

// multipartMemory is the part of a multipart body kept in memory; the
// rest spills to temporary files removed after the request.
const multipartMemory = 32 << 20

// ProcessRequest is the JSON carried in the "data" form field.
type ProcessRequest struct {
	DOIList   []string `json:"doi_list" validate:"dive,required"`
	URLs      []string `json:"urls" validate:"dive,required,http_url"`
	TopicList []string `json:"topic_list"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.Is(err, http.ErrNotMultipart):
			writeDetail(w, http.StatusBadRequest, "Expected multipart/form-data")
		default:
			writeDetail(w, http.StatusBadRequest, "Invalid multipart body")
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := s.parseRequest(r.FormValue("data"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	pdfs, err := s.readPDFs(r.MultipartForm.File["pdf_files"])
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]types.InputItem, 0, len(pdfs)+len(req.DOIList)+len(req.URLs))
	items = append(items, pdfs...)
	items = append(items, lo.Map(req.DOIList, func(d string, _ int) types.InputItem {
		return types.NewDOIInput(strings.TrimSpace(d))
	})...)
	items = append(items, lo.Map(req.URLs, func(u string, _ int) types.InputItem {
		return types.NewURLInput(strings.TrimSpace(u))
	})...)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.ProcessTimeout)
	defer cancel()

	resp, err := s.processor.Run(ctx, pipeline.Batch{Items: items, Topics: req.TopicList})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, pipeline.ErrEmptyBatch):
		writeDetail(w, http.StatusBadRequest, "At least one input type (PDFs, DOIs, or URLs) is required")
	case errors.Is(err, pipeline.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		writeDetail(w, http.StatusGatewayTimeout, "Processing timed out")
	default:
		s.log.Error("processing failed", "err", err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Internal server error: %v", err))
	}
}

// parseRequest decodes and validates the data field. A missing field is an
// empty request.
func (s *Server) parseRequest(data string) (ProcessRequest, error) {
	var req ProcessRequest
	if strings.TrimSpace(data) == "" {
		return req, nil
	}
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return req, errors.New("Invalid JSON data")
	}
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return req, fmt.Errorf("Invalid %s: %q failed %s validation",
				verrs[0].Namespace(), verrs[0].Value(), verrs[0].Tag())
		}
		return req, fmt.Errorf("Invalid request: %v", err)
	}
	return req, nil
}

// readPDFs loads uploaded PDFs into memory. Parts that are not PDFs by
// extension or content are skipped with a warning.
func (s *Server) readPDFs(headers []*multipart.FileHeader) ([]types.InputItem, error) {
	var items []types.InputItem
	for _, fh := range headers {
		name := filepath.Base(fh.Filename)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			s.log.Warn("skipping non-PDF upload", "filename", name)
			continue
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("Error reading %s: %v", name, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("Error reading %s: %v", name, err)
		}

		if !mimetype.Detect(data).Is("application/pdf") {
			s.log.Warn("skipping upload that is not a PDF document", "filename", name)
			continue
		}
		items = append(items, types.NewPDFInput(name, data))
	}
	return items, nil
}
