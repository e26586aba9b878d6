package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/chatnova/internal/ingest"
	"github.com/hyperjump/chatnova/internal/models"
	"github.com/hyperjump/chatnova/internal/prompt"
)

const (
	uploadFormField  = "file"
	multipartMemory  = 32 << 20
	multipartOverage = 1 << 20
	maxChatBody      = 64 << 20

	noFileMessage      = "No file provided."
	chatFailureMessage = "Failed to generate response"
)

type uploadError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadResponse struct {
	Documents []*models.UploadedDocument `json:"documents"`
	Errors    []uploadError              `json:"errors,omitempty"`
	// Error repeats the first rejection when no document was produced.
	Error string `json:"error,omitempty"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ic := s.config.Ingest
	limit := ic.MaxFileSizeBytes*int64(max(ic.MaxBatchFiles, 1)) + multipartOverage
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			s.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds the %d byte limit.", limit-multipartOverage))
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			s.respondError(w, http.StatusBadRequest, noFileMessage)
		default:
			s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		}
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadFormField]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, noFileMessage)
		return
	}
	if ic.MaxBatchFiles > 0 && len(headers) > ic.MaxBatchFiles {
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Too many files: %d (maximum %d per upload).", len(headers), ic.MaxBatchFiles))
		return
	}

	files := make([]ingest.File, len(headers))
	for i, fh := range headers {
		files[i] = multipartFile(fh)
	}
	s.logger.Debug("upload request", zap.Int("files", len(files)))

	resp := uploadResponse{Documents: []*models.UploadedDocument{}}
	var firstErr error
	for _, res := range s.ingestor.IngestBatch(r.Context(), files) {
		if res.Err != nil {
			s.logger.Info("upload rejected", zap.String("name", res.Name), zap.Error(res.Err))
			resp.Errors = append(resp.Errors, uploadError{Name: res.Name, Error: uploadErrorMessage(res.Err)})
			if firstErr == nil {
				firstErr = res.Err
			}
			continue
		}
		resp.Documents = append(resp.Documents, res.Document)
	}
	if len(resp.Documents) == 0 {
		resp.Error = uploadErrorMessage(firstErr)
		s.respondJSON(w, uploadFailureStatus(firstErr), resp)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func multipartFile(fh *multipart.FileHeader) ingest.File {
	return ingest.File{
		Name:      fh.Filename,
		MimeType:  fh.Header.Get("Content-Type"),
		SizeBytes: fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// uploadFailureStatus maps a rejected upload to its HTTP status.
func uploadFailureStatus(err error) int {
	var ve *ingest.ValidationError
	if !errors.As(err, &ve) {
		return http.StatusInternalServerError
	}
	switch ve.Kind {
	case ingest.KindUnsupportedType:
		return http.StatusUnsupportedMediaType
	case ingest.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

// uploadErrorMessage returns validation messages verbatim and hides anything else.
func uploadErrorMessage(err error) string {
	var ve *ingest.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return "The file could not be processed."
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(models.ProviderID(s.config.Dispatch.DefaultProvider)); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.dispatcher.Has(req.SelectedModel) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown model: %s", req.SelectedModel))
		return
	}

	docs := prompt.CollectDocuments(req.UploadedFiles, req.Messages)
	query := prompt.LatestUserQuery(req.Messages)
	composed := s.composer.Compose(s.personas.Lookup(req.SelectedModel), docs, req.Messages, query)
	s.logger.Debug("chat request",
		zap.String("model", string(req.SelectedModel)),
		zap.Int("messages", len(req.Messages)),
		zap.Int("documents", len(docs)))

	ctx := r.Context()
	if s.config.Server.ChatTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Server.ChatTimeout)
		defer cancel()
	}
	resp, err := s.dispatcher.Dispatch(ctx, composed, req.SelectedModel)
	if err != nil {
		s.logger.Error("chat failed", zap.String("model", string(req.SelectedModel)), zap.Error(err))
		body := models.ErrorResponse{Error: chatFailureMessage}
		if s.config.Server.ExposeErrorDetails {
			body.Details = err.Error()
		}
		s.respondJSON(w, http.StatusInternalServerError, body)
		return
	}
	s.respondJSON(w, http.StatusOK, models.ChatResponse{
		Role:     resp.Role,
		Content:  resp.Content,
		Model:    resp.ProviderUsed,
		Degraded: resp.Degraded,
	})
}

type providerInfo struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Model       string `json:"model,omitempty"`
	DisplayName string `json:"displayName"`
	Fallback    string `json:"fallback,omitempty"`
	Available   bool   `json:"available"`
}

type providersResponse struct {
	Default   string         `json:"default"`
	Providers []providerInfo `json:"providers"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	out := providersResponse{Default: s.config.Dispatch.DefaultProvider, Providers: []providerInfo{}}
	for id, pc := range s.config.Providers {
		pid := models.ProviderID(id)
		out.Providers = append(out.Providers, providerInfo{
			ID:          id,
			Kind:        pc.Kind,
			Model:       pc.Model,
			DisplayName: s.personas.Lookup(pid).DisplayName,
			Fallback:    string(s.dispatcher.FallbackFor(pid)),
			Available:   s.dispatcher.Has(pid),
		})
	}
	sort.Slice(out.Providers, func(i, j int) bool { return out.Providers[i].ID < out.Providers[j].ID })
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, models.ErrorResponse{Error: message})
}
