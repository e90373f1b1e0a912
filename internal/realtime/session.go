package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrSessionClosed        = errors.New("session closed")
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
)

// Session - одно дуплексное соединение. Принципал устанавливается один раз,
// исходящие кадры идут через ограниченную очередь.
type Session struct {
	id   uuid.UUID
	send chan []byte
	done chan struct{}

	mu            sync.Mutex
	userID        int64
	authenticated bool
	closed        bool
	rooms         map[int64]struct{}
}

func NewSession(queueSize int) *Session {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Session{
		id:    uuid.New(),
		send:  make(chan []byte, queueSize),
		done:  make(chan struct{}),
		rooms: make(map[int64]struct{}),
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Authenticate привязывает сессию к пользователю. Повторная привязка запрещена.
func (s *Session) Authenticate(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.authenticated {
		return ErrAlreadyAuthenticated
	}
	s.userID = userID
	s.authenticated = true
	return nil
}

// UserID возвращает принципала; ok=false, пока сессия не аутентифицирована.
func (s *Session) UserID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.authenticated
}

// Send кладёт кадр в очередь, не блокируясь. false - сессия закрыта или очередь полна.
func (s *Session) Send(frame []byte) bool {
	if s.IsClosed() {
		return false
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// Outbound - очередь для writer-горутины соединения.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

// Done закрывается вместе с сессией.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close идемпотентен. Канал send не закрывается: писатели могут ещё держать ссылку.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func (s *Session) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Rooms() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) InRoom(conversationID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[conversationID]
	return ok
}

func (s *Session) addRoom(conversationID int64) {
	s.mu.Lock()
	s.rooms[conversationID] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) removeRoom(conversationID int64) {
	s.mu.Lock()
	delete(s.rooms, conversationID)
	s.mu.Unlock()
}
