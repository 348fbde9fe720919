package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"rehearse-backend/internal/knowledge"
	"rehearse-backend/pkg/api"
)

const maxUploadMemory = 32 << 20

func (s *BackendService) UploadDocuments(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Error("error parsing multipart form", "error", err)
		return nil, CodedErrorf(http.StatusBadRequest, "unable to parse multipart form")
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File["pdf_docs"]) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "No PDF files uploaded.")
	}

	headers := r.MultipartForm.File["pdf_docs"]
	docs := make([]knowledge.Document, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, CodedErrorf(http.StatusBadRequest, "unable to read file %s", header.Filename)
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, CodedErrorf(http.StatusBadRequest, "unable to read file %s", header.Filename)
		}
		docs = append(docs, knowledge.Document{Name: header.Filename, Content: content})
	}

	result, err := s.knowledge.Ingest(r.Context(), docs)
	if errors.Is(err, knowledge.ErrNoText) {
		return nil, CodedError(http.StatusBadRequest, err)
	}
	if err != nil {
		return nil, CodedError(http.StatusInternalServerError, fmt.Errorf("error indexing documents: %w", err))
	}

	return api.UploadResponse{Message: "Document uploaded...", Documents: result.Documents, Chunks: result.Chunks}, nil
}

func (s *BackendService) AskQuestion(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AskRequest](r)
	if err != nil {
		return nil, err
	}

	answer, err := s.knowledge.Ask(r.Context(), req.Question)
	switch {
	case errors.Is(err, knowledge.ErrEmptyQuestion):
		return nil, CodedErrorBody(http.StatusBadRequest, err, api.AskResponse{Response: "No question provided"})
	case errors.Is(err, knowledge.ErrIndexEmpty):
		return nil, CodedErrorBody(http.StatusConflict, err, api.AskResponse{Response: "No documents have been uploaded yet"})
	case err != nil:
		slog.Error("error answering question", "error", err)
		return nil, CodedErrorBody(http.StatusInternalServerError, err, api.AskResponse{Response: "Internal Server Error"})
	}

	return api.AskResponse{Response: answer}, nil
}
