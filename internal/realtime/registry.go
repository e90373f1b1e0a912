package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"messenger/internal/domain"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

// Gate проверяет членство перед входом в комнату.
type Gate interface {
	RequireParticipant(ctx context.Context, userID, conversationID int64) (*domain.Participant, error)
}

// Registry хранит комнаты (id комнаты = id беседы) и живые сессии.
// Порядок блокировок: Registry.mu -> room.mu -> Session.mu.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[int64]*room
	sessions map[uuid.UUID]*Session

	gate Gate
	log  logger.Logger
}

type room struct {
	mu      sync.Mutex
	members map[uuid.UUID]*Session
	// closed ставится, когда комната опустела; в закрытую комнату не входят.
	closed bool
}

func newRoom() *room {
	return &room{members: make(map[uuid.UUID]*Session)}
}

func (rm *room) isClosed() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.closed
}

func NewRegistry(gate Gate, log logger.Logger) *Registry {
	return &Registry{
		rooms:    make(map[int64]*room),
		sessions: make(map[uuid.UUID]*Session),
		gate:     gate,
		log:      log,
	}
}

// Register учитывает сессию в числе подключённых.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
}

// Join добавляет сессию в комнату беседы. При любой ошибке сессия не меняется.
func (r *Registry) Join(ctx context.Context, s *Session, conversationID int64) error {
	userID, ok := s.UserID()
	if !ok {
		return apperrors.Unauthenticated("session is not authenticated")
	}
	if s.IsClosed() {
		return ErrSessionClosed
	}
	if _, err := r.gate.RequireParticipant(ctx, userID, conversationID); err != nil {
		return err
	}

	for {
		rm := r.getOrCreate(conversationID)
		rm.mu.Lock()
		if rm.closed {
			rm.mu.Unlock()
			continue
		}
		rm.members[s.ID()] = s
		rm.mu.Unlock()
		break
	}
	s.addRoom(conversationID)

	// Disconnect мог пройти между проверкой и вставкой.
	if s.IsClosed() {
		r.Leave(s, conversationID)
		return ErrSessionClosed
	}

	r.log.Debug("Session joined room", "session_id", s.ID(), "user_id", userID, "conversation_id", conversationID)
	return nil
}

// Leave безусловно убирает сессию из комнаты.
func (r *Registry) Leave(s *Session, conversationID int64) {
	r.removeFromRoom(conversationID, s)
	s.removeRoom(conversationID)
}

// Disconnect закрывает сессию и убирает её из всех комнат.
func (r *Registry) Disconnect(s *Session) {
	s.Close()
	for _, id := range s.Rooms() {
		r.Leave(s, id)
	}

	r.mu.Lock()
	delete(r.sessions, s.ID())
	r.mu.Unlock()
}

// Broadcast отправляет кадр всем сессиям комнаты и возвращает число принявших.
// Переполненная очередь теряет кадр только для своей сессии.
func (r *Registry) Broadcast(conversationID int64, frame []byte) int {
	r.mu.RLock()
	rm := r.rooms[conversationID]
	r.mu.RUnlock()
	if rm == nil {
		return 0
	}

	rm.mu.Lock()
	targets := lo.Values(rm.members)
	rm.mu.Unlock()

	delivered := 0
	for _, s := range targets {
		if s.Send(frame) {
			delivered++
			continue
		}
		r.log.Warn("Dropped frame for slow or closed session", "session_id", s.ID(), "conversation_id", conversationID)
	}
	return delivered
}

func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// MemberCount - число сессий в комнате, 0 если комнаты нет.
func (r *Registry) MemberCount(conversationID int64) int {
	r.mu.RLock()
	rm := r.rooms[conversationID]
	r.mu.RUnlock()
	if rm == nil {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}

func (r *Registry) getOrCreate(conversationID int64) *room {
	r.mu.RLock()
	rm, ok := r.rooms[conversationID]
	r.mu.RUnlock()
	if ok && !rm.isClosed() {
		return rm
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rm, ok = r.rooms[conversationID]
	if !ok || rm.isClosed() {
		rm = newRoom()
		r.rooms[conversationID] = rm
	}
	return rm
}

func (r *Registry) removeFromRoom(conversationID int64, s *Session) {
	r.mu.RLock()
	rm := r.rooms[conversationID]
	r.mu.RUnlock()
	if rm == nil {
		return
	}

	rm.mu.Lock()
	delete(rm.members, s.ID())
	emptied := len(rm.members) == 0 && !rm.closed
	if emptied {
		rm.closed = true
	}
	rm.mu.Unlock()

	if emptied {
		r.mu.Lock()
		if r.rooms[conversationID] == rm {
			delete(r.rooms, conversationID)
		}
		r.mu.Unlock()
	}
}
