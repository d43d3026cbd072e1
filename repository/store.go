package repository

import (
	"context"
	"errors"

	"github.com/krshsl/interview-coach/models"
)

// ErrDuplicateKey is returned when an insert violates a unique constraint
// (user email, or a session's turn order).
var ErrDuplicateKey = errors.New("duplicate key")

// Store is the persistence boundary used by the services. Lookups return
// (nil, nil) when no row matches; owner-scoped lookups treat rows of other
// users as missing.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	CreateResume(ctx context.Context, resume *models.Resume) error
	GetResumes(ctx context.Context, userID string) ([]models.Resume, error)
	GetResume(ctx context.Context, resumeID, userID string) (*models.Resume, error)

	CreateSession(ctx context.Context, session *models.Session) error
	GetSessions(ctx context.Context, userID string) ([]models.Session, error)
	// GetSession returns the session with its messages in turn order.
	GetSession(ctx context.Context, sessionID, userID string) (*models.Session, error)
	// LockSession returns the session row without messages and holds a row
	// lock until the surrounding transaction ends.
	LockSession(ctx context.Context, sessionID, userID string) (*models.Session, error)
	UpdateSession(ctx context.Context, session *models.Session) error
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessages(ctx context.Context, sessionID string) ([]models.Message, error)

	// WithTransaction runs fn against a transactional view of the store.
	// Writes become visible to other readers only if fn returns nil.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
