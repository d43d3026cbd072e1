package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/krshsl/interview-coach/models"
)

// MemoryRepository keeps everything in process memory. It is used when no
// database is configured and by tests. A transaction works on a private
// snapshot and records its writes; commit replays them onto the shared
// state. Transactions only wait for each other when they lock the same
// session.
type MemoryRepository struct {
	mu   sync.RWMutex
	data *memData

	locksMu      sync.Mutex
	sessionLocks map[string]*sync.Mutex

	// set on transaction views only
	root    *MemoryRepository
	pending []func(d *memData) error
	held    map[string]*sync.Mutex
}

var _ Store = (*MemoryRepository)(nil)

type memData struct {
	users    []models.User
	resumes  []models.Resume
	sessions []models.Session
	messages map[string][]models.Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data:         &memData{messages: make(map[string][]models.Message)},
		sessionLocks: make(map[string]*sync.Mutex),
	}
}

func (d *memData) clone() *memData {
	c := &memData{
		users:    append([]models.User(nil), d.users...),
		resumes:  append([]models.Resume(nil), d.resumes...),
		sessions: append([]models.Session(nil), d.sessions...),
		messages: make(map[string][]models.Message, len(d.messages)),
	}
	for id, msgs := range d.messages {
		c.messages[id] = append([]models.Message(nil), msgs...)
	}
	return c
}

func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	if r.root != nil {
		return fn(r)
	}

	r.mu.RLock()
	tx := &MemoryRepository{data: r.data.clone(), root: r, held: make(map[string]*sync.Mutex)}
	r.mu.RUnlock()
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	return r.commit(tx.pending)
}

// commit replays a transaction's writes onto the latest shared state. Nothing
// is applied if any write conflicts.
func (r *MemoryRepository) commit(ops []func(d *memData) error) error {
	if len(ops) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.data.clone()
	for _, op := range ops {
		if err := op(next); err != nil {
			return err
		}
	}
	r.data = next
	return nil
}

func (r *MemoryRepository) release() {
	for _, l := range r.held {
		l.Unlock()
	}
	r.held = nil
}

func (r *MemoryRepository) sessionLock(id string) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	l, ok := r.sessionLocks[id]
	if !ok {
		l = &sync.Mutex{}
		r.sessionLocks[id] = l
	}
	return l
}

// refresh rebuilds a view's snapshot from committed state plus its own
// pending writes.
func (r *MemoryRepository) refresh() error {
	r.root.mu.RLock()
	next := r.root.data.clone()
	r.root.mu.RUnlock()

	for _, op := range r.pending {
		if err := op(next); err != nil {
			return err
		}
	}
	r.mu.Lock()
	r.data = next
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// write applies op now and, inside a transaction, keeps it for commit.
func (r *MemoryRepository) write(op func(d *memData) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := op(r.data); err != nil {
		return err
	}
	if r.root != nil {
		r.pending = append(r.pending, op)
	}
	return nil
}

func (r *MemoryRepository) read(fn func(d *memData)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.data)
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	return r.write(func(d *memData) error {
		for _, u := range d.users {
			if u.Email == stored.Email {
				return ErrDuplicateKey
			}
		}
		d.users = append(d.users, stored)
		return nil
	})
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var found *models.User
	r.read(func(d *memData) {
		for _, u := range d.users {
			if u.Email == email {
				u := u
				found = &u
				return
			}
		}
	})
	return found, nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var found *models.User
	r.read(func(d *memData) {
		for _, u := range d.users {
			if u.ID == id {
				u := u
				found = &u
				return
			}
		}
	})
	return found, nil
}

func (r *MemoryRepository) CreateResume(ctx context.Context, resume *models.Resume) error {
	if resume.ID == "" {
		resume.ID = uuid.New().String()
	}
	resume.CreatedAt = time.Now()
	stored := *resume
	return r.write(func(d *memData) error {
		d.resumes = append(d.resumes, stored)
		return nil
	})
}

func (r *MemoryRepository) GetResumes(ctx context.Context, userID string) ([]models.Resume, error) {
	resumes := []models.Resume{}
	r.read(func(d *memData) {
		for _, res := range d.resumes {
			if res.UserID == userID {
				resumes = append(resumes, res)
			}
		}
	})
	return resumes, nil
}

func (r *MemoryRepository) GetResume(ctx context.Context, resumeID, userID string) (*models.Resume, error) {
	var found *models.Resume
	r.read(func(d *memData) {
		for _, res := range d.resumes {
			if res.ID == resumeID && res.UserID == userID {
				res := res
				found = &res
				return
			}
		}
	})
	return found, nil
}

func (r *MemoryRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	session.CreatedAt, session.UpdatedAt = now, now
	stored := *session
	stored.Messages = nil
	return r.write(func(d *memData) error {
		d.sessions = append(d.sessions, stored)
		return nil
	})
}

func (r *MemoryRepository) GetSessions(ctx context.Context, userID string) ([]models.Session, error) {
	sessions := []models.Session{}
	r.read(func(d *memData) {
		for _, s := range d.sessions {
			if s.UserID == userID {
				s.Messages = append([]models.Message{}, d.messages[s.ID]...)
				sessions = append(sessions, s)
			}
		}
	})
	return sessions, nil
}

func (r *MemoryRepository) GetSession(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	var found *models.Session
	r.read(func(d *memData) {
		if i := d.sessionIndex(sessionID, userID); i >= 0 {
			s := d.sessions[i]
			s.Messages = append([]models.Message{}, d.messages[s.ID]...)
			found = &s
		}
	})
	return found, nil
}

// LockSession is GetSession without messages. Inside a transaction it holds
// the session until commit or rollback and refreshes the snapshot, so the
// caller sees every write committed before the lock was granted.
func (r *MemoryRepository) LockSession(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	if r.root != nil {
		if _, ok := r.held[sessionID]; !ok {
			l := r.root.sessionLock(sessionID)
			l.Lock()
			r.held[sessionID] = l
			if err := r.refresh(); err != nil {
				return nil, err
			}
		}
	}

	var found *models.Session
	r.read(func(d *memData) {
		if i := d.sessionIndex(sessionID, userID); i >= 0 {
			s := d.sessions[i]
			found = &s
		}
	})
	return found, nil
}

func (r *MemoryRepository) UpdateSession(ctx context.Context, session *models.Session) error {
	id, status, endedAt, now := session.ID, session.Status, session.EndedAt, time.Now()
	return r.write(func(d *memData) error {
		for i := range d.sessions {
			if d.sessions[i].ID == id {
				d.sessions[i].Status = status
				d.sessions[i].EndedAt = endedAt
				d.sessions[i].UpdatedAt = now
				return nil
			}
		}
		return nil
	})
}

func (r *MemoryRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	stored := *message
	return r.write(func(d *memData) error {
		for _, m := range d.messages[stored.SessionID] {
			if m.TurnOrder == stored.TurnOrder {
				return ErrDuplicateKey
			}
		}
		msgs := append(d.messages[stored.SessionID], stored)
		// keep turn order; appends are almost always already in order
		for i := len(msgs) - 1; i > 0 && msgs[i].TurnOrder < msgs[i-1].TurnOrder; i-- {
			msgs[i], msgs[i-1] = msgs[i-1], msgs[i]
		}
		d.messages[stored.SessionID] = msgs
		return nil
	})
}

func (r *MemoryRepository) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	var messages []models.Message
	r.read(func(d *memData) {
		messages = append([]models.Message{}, d.messages[sessionID]...)
	})
	return messages, nil
}

func (d *memData) sessionIndex(sessionID, userID string) int {
	for i, s := range d.sessions {
		if s.ID == sessionID && s.UserID == userID {
			return i
		}
	}
	return -1
}
