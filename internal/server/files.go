// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/samber/lo"

	"github.com/pdiddy/research-podcast/internal/audio"
)

type fileEntry struct {
	Filename string  `json:"filename"`
	Size     int64   `json:"size"`
	SizeMB   float64 `json:"size_mb"`
}

type fileList struct {
	AudioFiles []fileEntry `json:"audio_files"`
	TotalFiles int         `json:"total_files"`
}

type deleteAllResult struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	f, err := s.store.Open(name)
	if err != nil {
		if errors.Is(err, audio.ErrNotFound) || errors.Is(err, audio.ErrInvalidName) {
			writeDetail(w, http.StatusNotFound, "Audio file not found")
			return
		}
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error reading audio: %v", err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error reading audio: %v", err))
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleListFiles(w http.ResponseWriter, _ *http.Request) {
	list, err := s.store.List()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error listing files: %v", err))
		return
	}
	files := lo.Map(list, func(a audio.Artifact, _ int) fileEntry {
		return fileEntry{Filename: a.Name, Size: a.Size, SizeMB: a.SizeMB()}
	})
	writeJSON(w, http.StatusOK, fileList{AudioFiles: files, TotalFiles: len(files)})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	err := s.store.Delete(name)
	switch {
	case err == nil:
		s.log.Info("deleted audio file", "filename", name)
		writeJSON(w, http.StatusOK, message{Message: fmt.Sprintf("File %s deleted successfully", name)})
	case errors.Is(err, audio.ErrNotFound), errors.Is(err, audio.ErrInvalidName):
		writeDetail(w, http.StatusNotFound, "File not found")
	default:
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error deleting file: %v", err))
	}
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, _ *http.Request) {
	n, err := s.store.DeleteAll()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error deleting files: %v", err))
		return
	}
	s.log.Info("deleted all audio files", "count", n)
	writeJSON(w, http.StatusOK, deleteAllResult{
		Message:      fmt.Sprintf("Deleted %d audio files", n),
		DeletedCount: n,
	})
}
