package services

import (
	"context"
	"testing"

	"github.com/krshsl/interview-coach/llm"
	"github.com/krshsl/interview-coach/models"
	"github.com/krshsl/interview-coach/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDatabaseIsRepeatable(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	seeder := NewDatabaseSeeder(repo, NewSessionService(repo, llm.NewStub()))

	require.NoError(t, seeder.SeedDatabase(ctx))
	require.NoError(t, seeder.SeedDatabase(ctx))

	auth := NewAuthService(repo, testSecret, nil)
	for _, u := range seedUsers {
		_, err := auth.Login(ctx, u.Email, seedPassword)
		assert.NoError(t, err, u.Email)
	}

	first, err := repo.GetUserByEmail(ctx, seedUsers[0].Email)
	require.NoError(t, err)
	sessions, err := repo.GetSessions(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.AgentHR, sessions[0].AgentType)
	assert.Len(t, sessions[0].Messages, 1)
}
