package services

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interview-coach/models"
)

type ResumeEndpoints struct {
	resumes *ResumeService
}

type ResumeOut struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	RawText  string `json:"raw_text"`
}

func newResumeOut(r *models.Resume) ResumeOut {
	return ResumeOut{ID: r.ID, Filename: r.Filename, RawText: r.RawText}
}

func NewResumeEndpoints(resumes *ResumeService) *ResumeEndpoints {
	return &ResumeEndpoints{resumes: resumes}
}

func (e *ResumeEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/resume", func(r chi.Router) {
		r.Post("/upload", e.UploadHandler)
		r.Get("/", e.ListHandler)
		r.Get("/{id}", e.GetHandler)
	})
}

func (e *ResumeEndpoints) UploadHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxResumeSize+1<<20)
	if err := r.ParseMultipartForm(MaxResumeSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, NewHTTPError(http.StatusRequestEntityTooLarge, "file is too large", "FILE_TOO_LARGE"))
			return
		}
		writeError(w, NewHTTPError(http.StatusBadRequest, "invalid multipart form", "INVALID_BODY"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, NewHTTPError(http.StatusBadRequest, "file is required", "VALIDATION_ERROR"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, MaxResumeSize+1))
	if err != nil {
		slog.Error("Failed to read uploaded file", "error", err, "user_id", user.ID)
		writeError(w, err)
		return
	}
	if len(content) > MaxResumeSize {
		writeError(w, NewHTTPError(http.StatusRequestEntityTooLarge, "file is too large", "FILE_TOO_LARGE"))
		return
	}

	resume, err := e.resumes.Upload(r.Context(), user, header.Filename, content, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newResumeOut(resume))
}

func (e *ResumeEndpoints) ListHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	resumes, err := e.resumes.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]ResumeOut, 0, len(resumes))
	for i := range resumes {
		out = append(out, newResumeOut(&resumes[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *ResumeEndpoints) GetHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	resume, err := e.resumes.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newResumeOut(resume))
}
