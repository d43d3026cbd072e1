package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/krshsl/interview-coach/models"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type GORMRepository struct {
	db *gorm.DB
}

var _ Store = (*GORMRepository)(nil)

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.Resume{},
		&models.Session{},
		&models.Message{},
	)
}

func (r *GORMRepository) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GORMRepository{db: tx})
	})
}

func (r *GORMRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		slog.Error("Failed to create user", "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, nil
	}
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

// Resume operations
func (r *GORMRepository) CreateResume(ctx context.Context, resume *models.Resume) error {
	if err := r.db.WithContext(ctx).Create(resume).Error; err != nil {
		slog.Error("Failed to create resume", "error", err, "user_id", resume.UserID)
		return fmt.Errorf("failed to create resume: %w", err)
	}
	slog.Info("Resume created", "resume_id", resume.ID, "user_id", resume.UserID)
	return nil
}

func (r *GORMRepository) GetResumes(ctx context.Context, userID string) ([]models.Resume, error) {
	resumes := []models.Resume{}
	if !validID(userID) {
		return resumes, nil
	}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&resumes).Error
	if err != nil {
		slog.Error("Failed to get resumes", "error", err, "user_id", userID)
		return nil, err
	}
	return resumes, nil
}

func (r *GORMRepository) GetResume(ctx context.Context, resumeID, userID string) (*models.Resume, error) {
	if !validID(resumeID) || !validID(userID) {
		return nil, nil
	}
	var resume models.Resume
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", resumeID, userID).First(&resume).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Failed to get resume", "error", err, "resume_id", resumeID, "user_id", userID)
		return nil, err
	}
	return &resume, nil
}

// validID reports whether id can be compared against a uuid column; any
// other value cannot match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
