package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/krshsl/interview-coach/models"
	"github.com/krshsl/interview-coach/repository"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "password"

var seedUsers = []models.User{
	{Name: "Test User", Email: "test@example.com"},
	{Name: "Demo User", Email: "demo@example.com"},
}

// DatabaseSeeder creates demo accounts for local development
type DatabaseSeeder struct {
	repo     repository.Store
	sessions *SessionService
}

func NewDatabaseSeeder(repo repository.Store, sessions *SessionService) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo, sessions: sessions}
}

// SeedDatabase seeds demo users and gives the first one an HR session.
// Safe to run on every start.
func (s *DatabaseSeeder) SeedDatabase(ctx context.Context) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	for _, u := range seedUsers {
		user := u
		user.Password = string(hashedPassword)
		if err := s.seedUser(ctx, &user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}

	firstUser, err := s.repo.GetUserByEmail(ctx, seedUsers[0].Email)
	if err != nil {
		return fmt.Errorf("failed to get seed user: %w", err)
	}
	if firstUser == nil {
		return fmt.Errorf("seed user %s not found", seedUsers[0].Email)
	}

	sessions, err := s.repo.GetSessions(ctx, firstUser.ID)
	if err != nil {
		return fmt.Errorf("failed to check seed sessions: %w", err)
	}
	if len(sessions) == 0 && s.sessions != nil {
		if _, err := s.sessions.Create(ctx, firstUser, models.AgentHR, nil, nil); err != nil {
			return fmt.Errorf("failed to seed session: %w", err)
		}
	}

	slog.Info("Database seeding completed")
	return nil
}

func (s *DatabaseSeeder) seedUser(ctx context.Context, user *models.User) error {
	existing, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		slog.Info("User already exists, skipping", "email", user.Email)
		return nil
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return err
	}
	slog.Info("Seeded user", "email", user.Email)
	return nil
}
