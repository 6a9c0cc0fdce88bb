// Package memory: хранилища в памяти процесса. Используются в тестах
// и в режиме STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/lesson_scheduler/internal/apperrors"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
	"github.com/Freeeeeet/lesson_scheduler/internal/repository"
	"github.com/google/uuid"
)

// SessionStore хранит сессии в памяти. Проверка и запись для одного учителя
// сериализуются отдельным мьютексом на учителя.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*model.Session

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[uuid.UUID]*model.Session),
		locks:    make(map[uuid.UUID]*sync.Mutex),
		now:      time.Now,
	}
}

func (s *SessionStore) teacherLock(teacherID uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[teacherID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[teacherID] = l
	}
	return l
}

// InTeacherTx выполняет fn под мьютексом учителя. Изменения копятся в
// транзакции и применяются только при успешном завершении fn.
func (s *SessionStore) InTeacherTx(ctx context.Context, teacherID uuid.UUID, fn func(ctx context.Context, tx repository.SessionTx) error) error {
	l := s.teacherLock(teacherID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &sessionTx{store: s, pending: make(map[uuid.UUID]*model.Session)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *SessionStore) commit(tx *sessionTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	effective := make(map[uuid.UUID]*model.Session, len(s.sessions)+len(tx.pending))
	for id, x := range s.sessions {
		effective[id] = x
	}
	for id, p := range tx.pending {
		effective[id] = p
	}

	// то же, что частичный уникальный индекс в postgres
	for _, p := range tx.pending {
		if !p.Status.BlocksSlot() {
			continue
		}
		for _, other := range effective {
			if other.ID == p.ID || !other.Status.BlocksSlot() {
				continue
			}
			if other.TeacherID == p.TeacherID && other.Date.Equal(p.Date) && other.StartTime == p.StartTime {
				return apperrors.SlotUnavailable("slot was taken by a concurrent booking", other.ID)
			}
		}
	}

	for id, p := range tx.pending {
		s.sessions[id] = p
	}
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return session.Clone(), nil
}

func (s *SessionStore) ListByTeacher(ctx context.Context, teacherID uuid.UUID, from, to time.Time) ([]*model.Session, error) {
	return s.list(func(x *model.Session) bool {
		return x.TeacherID == teacherID && inRange(x.Date, from, to)
	}), nil
}

func (s *SessionStore) ListByStudent(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*model.Session, error) {
	return s.list(func(x *model.Session) bool {
		return x.StudentID == studentID && inRange(x.Date, from, to)
	}), nil
}

func (s *SessionStore) ListPendingReminders(ctx context.Context, from, to time.Time) ([]*model.Session, error) {
	return s.list(func(x *model.Session) bool {
		return x.Status == model.SessionStatusScheduled && !x.ReminderSent && inRange(x.Date, from, to)
	}), nil
}

func (s *SessionStore) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return apperrors.NotFound("session not found")
	}

	// под мьютексом учителя, как FOR UPDATE в postgres
	l := s.teacherLock(session.TeacherID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok {
		return apperrors.NotFound("session not found")
	}
	updated := current.Clone()
	updated.ReminderSent = true
	updated.UpdatedAt = s.now()
	s.sessions[id] = updated
	return nil
}

func (s *SessionStore) list(match func(*model.Session) bool) []*model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Session
	for _, session := range s.sessions {
		if match(session) {
			result = append(result, session.Clone())
		}
	}
	sortSessions(result)
	return result
}

func inRange(date, from, to time.Time) bool {
	d := model.DateOf(date)
	return !d.Before(model.DateOf(from)) && !d.After(model.DateOf(to))
}

func sortSessions(sessions []*model.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].Date.Equal(sessions[j].Date) {
			return sessions[i].Date.Before(sessions[j].Date)
		}
		return sessions[i].StartTime < sessions[j].StartTime
	})
}

// sessionTx видит собственные незакоммиченные изменения поверх хранилища
type sessionTx struct {
	store   *SessionStore
	pending map[uuid.UUID]*model.Session
}

func (t *sessionTx) lookup(id uuid.UUID) (*model.Session, bool) {
	if p, ok := t.pending[id]; ok {
		return p, true
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	s, ok := t.store.sessions[id]
	return s, ok
}

func (t *sessionTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s, ok := t.lookup(id)
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (t *sessionTx) ListActiveOnDate(ctx context.Context, teacherID uuid.UUID, date time.Time) ([]*model.Session, error) {
	date = model.DateOf(date)
	match := func(x *model.Session) bool {
		return x.TeacherID == teacherID && x.Date.Equal(date) && x.Status.BlocksSlot()
	}

	var result []*model.Session
	for _, p := range t.pending {
		if match(p) {
			result = append(result, p.Clone())
		}
	}

	t.store.mu.RLock()
	for id, s := range t.store.sessions {
		if _, shadowed := t.pending[id]; shadowed {
			continue
		}
		if match(s) {
			result = append(result, s.Clone())
		}
	}
	t.store.mu.RUnlock()

	sortSessions(result)
	return result, nil
}

func (t *sessionTx) Insert(ctx context.Context, session *model.Session) error {
	if _, exists := t.lookup(session.ID); exists {
		return apperrors.Validation("session already exists")
	}
	now := t.store.now()
	session.CreatedAt = now
	session.UpdatedAt = now
	t.pending[session.ID] = session.Clone()
	return nil
}

func (t *sessionTx) Update(ctx context.Context, session *model.Session) error {
	if _, exists := t.lookup(session.ID); !exists {
		return apperrors.NotFound("session not found")
	}
	session.UpdatedAt = t.store.now()
	t.pending[session.ID] = session.Clone()
	return nil
}
