package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"rehearse-backend/internal/speech"
	"rehearse-backend/internal/storage"
	"rehearse-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

var chatFileRe = regexp.MustCompile(`^[a-zA-Z0-9_]+\.json$`)

func (s *BackendService) LoadPersonas(r *http.Request) (any, error) {
	return api.PersonasResponse{Personas: s.personas.All()}, nil
}

func (s *BackendService) GetPersonaDetails(r *http.Request) (any, error) {
	row, ok := s.personas.Get(chi.URLParam(r, "persona"))
	if !ok {
		return nil, CodedErrorf(http.StatusNotFound, "Persona not found")
	}
	return row, nil
}

func (s *BackendService) GetChat(w http.ResponseWriter, r *http.Request) {
	params, err := ParseRequestQueryParams[api.GetChatParams](r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if !chatFileRe.MatchString(params.ChatFile) {
		WriteError(w, CodedErrorf(http.StatusBadRequest, "Invalid file name."))
		return
	}

	path := filepath.Join(s.chatDir, params.ChatFile)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		WriteError(w, CodedErrorf(http.StatusNotFound, "File not found."))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, path)
}

func (s *BackendService) GetAudio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if !speech.ValidAudioName(name) {
		WriteError(w, CodedErrorf(http.StatusNotFound, "File not found."))
		return
	}

	audio, err := s.audio.Open(r.Context(), name)
	if errors.Is(err, storage.ErrObjectNotFound) {
		WriteError(w, CodedErrorf(http.StatusNotFound, "File not found."))
		return
	}
	if err != nil {
		slog.Error("error reading audio file", "name", name, "error", err)
		WriteError(w, CodedErrorf(http.StatusInternalServerError, "error reading audio file"))
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		slog.Error("error writing audio response", "name", name, "error", err)
	}
}

func (s *BackendService) RemoveAllAudioFiles(r *http.Request) (any, error) {
	if _, err := s.audio.RemoveAll(r.Context()); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Failed to remove audio files")
	}
	return api.MessageResponse{Message: "All audio files removed successfully"}, nil
}
