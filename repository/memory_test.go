package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/krshsl/interview-coach/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, repo Store) (*models.User, *models.Session) {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Name: "Ann", Email: "ann@example.com", Password: "hash"}
	require.NoError(t, repo.CreateUser(ctx, user))
	session := &models.Session{UserID: user.ID, AgentType: models.AgentHR, Status: models.SessionActive}
	require.NoError(t, repo.CreateSession(ctx, session))
	return user, session
}

func TestMemoryRepositoryUsers(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	user := &models.User{Name: "Ann", Email: "ann@example.com", Password: "hash"}
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	err := repo.CreateUser(ctx, &models.User{Name: "Dup", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	found, err := repo.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	missing, err := repo.GetUserByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryRepositoryOwnerScoping(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	user, session := seedSession(t, repo)

	other := &models.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, repo.CreateUser(ctx, other))

	resume := &models.Resume{UserID: user.ID, Filename: "cv.pdf", ContentType: "application/pdf", RawText: "text"}
	require.NoError(t, repo.CreateResume(ctx, resume))

	got, err := repo.GetResume(ctx, resume.ID, other.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)

	s, err := repo.GetSession(ctx, session.ID, other.ID)
	assert.NoError(t, err)
	assert.Nil(t, s)

	resumes, err := repo.GetResumes(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, resumes)
}

func TestMemoryRepositoryMessagesInTurnOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	user, session := seedSession(t, repo)

	for _, turn := range []int{2, 1, 3} {
		require.NoError(t, repo.CreateMessage(ctx, &models.Message{
			SessionID: session.ID, TurnOrder: turn, Role: models.RoleUser, Content: "m",
		}))
	}

	err := repo.CreateMessage(ctx, &models.Message{SessionID: session.ID, TurnOrder: 2, Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	got, err := repo.GetSession(ctx, session.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	for i, m := range got.Messages {
		assert.Equal(t, i+1, m.TurnOrder)
	}

	locked, err := repo.LockSession(ctx, session.ID, user.ID)
	require.NoError(t, err)
	assert.Empty(t, locked.Messages)
}

func TestMemoryRepositoryTransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	user, session := seedSession(t, repo)

	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(tx Store) error {
		require.NoError(t, tx.CreateMessage(ctx, &models.Message{
			SessionID: session.ID, TurnOrder: 1, Role: models.RoleUser, Content: "pending",
		}))

		// invisible outside the transaction until commit
		outside, err := repo.GetMessages(ctx, session.ID)
		require.NoError(t, err)
		assert.Empty(t, outside)

		inside, err := tx.GetMessages(ctx, session.ID)
		require.NoError(t, err)
		assert.Len(t, inside, 1)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	messages, err := repo.GetMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	err = repo.WithTransaction(ctx, func(tx Store) error {
		locked, err := tx.LockSession(ctx, session.ID, user.ID)
		if err != nil {
			return err
		}
		locked.Status = models.SessionCompleted
		return tx.UpdateSession(ctx, locked)
	})
	require.NoError(t, err)

	got, err := repo.GetSession(ctx, session.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, got.Status)
}

func TestMemoryRepositoryConcurrentTransactions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	user, session := seedSession(t, repo)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.WithTransaction(ctx, func(tx Store) error {
				if _, err := tx.LockSession(ctx, session.ID, user.ID); err != nil {
					return err
				}
				msgs, err := tx.GetMessages(ctx, session.ID)
				if err != nil {
					return err
				}
				return tx.CreateMessage(ctx, &models.Message{
					SessionID: session.ID, TurnOrder: len(msgs) + 1, Role: models.RoleUser, Content: "m",
				})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	messages, err := repo.GetMessages(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, messages, writers)
}

func TestMemoryRepositoryLockIsPerSession(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	user, first := seedSession(t, repo)
	second := &models.Session{UserID: user.ID, AgentType: models.AgentTechLead, Status: models.SessionActive}
	require.NoError(t, repo.CreateSession(ctx, second))

	locked := make(chan struct{})
	release := make(chan struct{})
	held := make(chan error, 1)
	go func() {
		held <- repo.WithTransaction(ctx, func(tx Store) error {
			if _, err := tx.LockSession(ctx, first.ID, user.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return tx.CreateMessage(ctx, &models.Message{
				SessionID: first.ID, TurnOrder: 1, Role: models.RoleUser, Content: "slow",
			})
		})
	}()
	<-locked

	done := make(chan error, 1)
	go func() {
		if err := repo.CreateUser(ctx, &models.User{Name: "Bob", Email: "bob@example.com", Password: "hash"}); err != nil {
			done <- err
			return
		}
		done <- repo.WithTransaction(ctx, func(tx Store) error {
			if _, err := tx.LockSession(ctx, second.ID, user.ID); err != nil {
				return err
			}
			return tx.CreateMessage(ctx, &models.Message{
				SessionID: second.ID, TurnOrder: 1, Role: models.RoleUser, Content: "fast",
			})
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("writes blocked behind a lock on another session")
	}

	close(release)
	require.NoError(t, <-held)

	for _, s := range []*models.Session{first, second} {
		messages, err := repo.GetMessages(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, messages, 1)
	}
	bob, err := repo.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.NotNil(t, bob)
}

func TestMemoryRepositoryCommitConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	_, session := seedSession(t, repo)

	err := repo.WithTransaction(ctx, func(tx Store) error {
		if err := tx.CreateMessage(ctx, &models.Message{
			SessionID: session.ID, TurnOrder: 1, Role: models.RoleUser, Content: "tx",
		}); err != nil {
			return err
		}
		// another writer takes the same turn before this one commits
		return repo.CreateMessage(ctx, &models.Message{
			SessionID: session.ID, TurnOrder: 1, Role: models.RoleUser, Content: "outside",
		})
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)

	messages, err := repo.GetMessages(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "outside", messages[0].Content)
}
