package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/krshsl/interview-coach/models"
	"github.com/krshsl/interview-coach/repository"
)

const MaxResumeSize = 10 << 20

type ResumeService struct {
	repo repository.Store
}

func NewResumeService(repo repository.Store) *ResumeService {
	return &ResumeService{repo: repo}
}

// Upload extracts the text of a PDF or DOCX file and stores it for user.
func (s *ResumeService) Upload(ctx context.Context, user *models.User, filename string, content []byte, contentType string) (*models.Resume, error) {
	contentType = resolveContentType(contentType, content)
	if contentType != MimePDF && contentType != MimeDOCX {
		return nil, ErrUnsupportedType
	}

	rawText, err := extractText(contentType, content)
	if err != nil {
		if errors.Is(err, ErrUnsupportedType) {
			return nil, err
		}
		slog.Warn("Resume text extraction failed", "error", err, "filename", filename, "content_type", contentType)
		return nil, ErrEmptyExtraction
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, ErrEmptyExtraction
	}

	resume := &models.Resume{
		UserID:      user.ID,
		Filename:    filename,
		ContentType: contentType,
		RawText:     rawText,
	}
	if err := s.repo.CreateResume(ctx, resume); err != nil {
		return nil, fmt.Errorf("failed to save resume: %w", err)
	}

	slog.Info("Resume uploaded", "resume_id", resume.ID, "user_id", user.ID, "content_type", contentType, "text_length", len(rawText))
	return resume, nil
}

func (s *ResumeService) List(ctx context.Context, user *models.User) ([]models.Resume, error) {
	resumes, err := s.repo.GetResumes(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return resumes, nil
}

func (s *ResumeService) Get(ctx context.Context, user *models.User, resumeID string) (*models.Resume, error) {
	resume, err := s.repo.GetResume(ctx, resumeID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	if resume == nil {
		return nil, ErrResumeNotFound
	}
	return resume, nil
}
