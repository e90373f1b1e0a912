package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"messenger/internal/config"
	"messenger/internal/middleware"
	"messenger/internal/realtime"
	"messenger/internal/service"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

type WebSocketHandler struct {
	authService    service.AuthService
	messageService service.MessageService
	registry       *realtime.Registry
	cfg            config.WebSocketConfig
	cookieName     string
	upgrader       websocket.Upgrader
	log            logger.Logger
}

func NewWebSocketHandler(
	authService service.AuthService,
	messageService service.MessageService,
	registry *realtime.Registry,
	cfg config.WebSocketConfig,
	allowedOrigins []string,
	cookieName string,
	log logger.Logger,
) *WebSocketHandler {
	return &WebSocketHandler{
		authService:    authService,
		messageService: messageService,
		registry:       registry,
		cfg:            cfg,
		cookieName:     cookieName,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: cfg.HandshakeTimeout,
			CheckOrigin:      checkOrigin(allowedOrigins),
		},
		log: log,
	}
}

// checkOrigin пропускает клиентов без Origin (не браузер) и разрешённые источники.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return lo.Contains(allowed, "*") || lo.Contains(allowed, origin)
	}
}

// Handle: GET /ws. Токен из заголовка, ?token= или cookie проверяется до апгрейда;
// без токена клиент обязан прислать authenticate в течение HandshakeTimeout.
func (h *WebSocketHandler) Handle(c *gin.Context) {
	var userID int64
	if token := middleware.ExtractToken(c.Request, h.cookieName, true); token != "" {
		user, err := h.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			return
		}
		userID = user.ID
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Failed to upgrade connection", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	session := realtime.NewSession(h.cfg.SendQueueSize)
	log := h.log.With("session_id", session.ID())
	if userID != 0 {
		_ = session.Authenticate(userID)
	} else {
		timer := time.AfterFunc(h.cfg.HandshakeTimeout, func() {
			if _, ok := session.UserID(); !ok {
				log.Info("Handshake timeout, closing session")
				session.Close()
			}
		})
		defer timer.Stop()
	}

	h.registry.Register(session)
	log.Info("WebSocket session opened", "user_id", userID)

	go h.writePump(conn, session, log)
	h.readPump(ctx, conn, session, log)

	log.Info("WebSocket session closed")
}

func (h *WebSocketHandler) readPump(ctx context.Context, conn *websocket.Conn, session *realtime.Session, log logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("WebSocket session panic", "panic", r)
		}
		h.registry.Disconnect(session)
	}()

	conn.SetReadLimit(h.cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read failed", "error", err)
			}
			return
		}

		h.dispatch(ctx, session, raw, log)
		if session.IsClosed() {
			return
		}
	}
}

// writePump - единственный писатель в соединение. Закрытие сессии закрывает и сокет,
// что разблокирует readPump.
func (h *WebSocketHandler) writePump(conn *websocket.Conn, session *realtime.Session, log logger.Logger) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case frame := <-session.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Debug("WebSocket write failed", "error", err)
				session.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				session.Close()
				return
			}
		case <-session.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// dispatch обрабатывает входящий кадр. Ошибок клиенту не отправляем: они только логируются.
func (h *WebSocketHandler) dispatch(ctx context.Context, session *realtime.Session, raw []byte, log logger.Logger) {
	var env realtime.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug("Malformed frame dropped", "error", err)
		return
	}

	switch env.Event {
	case realtime.EventAuthenticate:
		h.handleAuthenticate(ctx, session, env.Data, log)

	case realtime.EventJoinConversation:
		var p realtime.ConversationPayload
		if !decodeData(env.Data, &p, log) {
			return
		}
		if err := h.registry.Join(ctx, session, p.ConversationID); err != nil {
			if errors.Is(err, apperrors.ErrUnauthenticated) {
				log.Info("Room operation before authentication, closing session")
				session.Close()
				return
			}
			log.Warn("Join rejected", "conversation_id", p.ConversationID, "error", err)
		}

	case realtime.EventLeaveConversation:
		var p realtime.ConversationPayload
		if !decodeData(env.Data, &p, log) {
			return
		}
		if _, ok := session.UserID(); !ok {
			log.Info("Room operation before authentication, closing session")
			session.Close()
			return
		}
		h.registry.Leave(session, p.ConversationID)

	case realtime.EventMessage:
		var p realtime.InboundMessagePayload
		if !decodeData(env.Data, &p, log) {
			return
		}
		userID, ok := session.UserID()
		if !ok {
			log.Info("Message before authentication, closing session")
			session.Close()
			return
		}
		if p.SenderID != userID {
			log.Warn("Message with foreign senderId dropped", "user_id", userID, "sender_id", p.SenderID)
			return
		}
		if _, err := h.messageService.Submit(ctx, userID, p.ConversationID, p.Content); err != nil {
			log.Warn("Message rejected", "conversation_id", p.ConversationID, "error", err)
		}

	default:
		log.Debug("Unknown event dropped", "event", env.Event)
	}
}

func (h *WebSocketHandler) handleAuthenticate(ctx context.Context, session *realtime.Session, data json.RawMessage, log logger.Logger) {
	if _, ok := session.UserID(); ok {
		log.Debug("Session already authenticated, authenticate ignored")
		return
	}

	var p realtime.AuthenticatePayload
	if !decodeData(data, &p, log) {
		session.Close()
		return
	}

	user, err := h.authService.ValidateToken(ctx, p.Token)
	if err != nil {
		log.Info("Handshake failed, closing session", "error", err)
		session.Close()
		return
	}
	if err := session.Authenticate(user.ID); err != nil {
		log.Debug("Authenticate ignored", "error", err)
		return
	}
	log.Info("Session authenticated", "user_id", user.ID)
}

func decodeData(data json.RawMessage, v interface{}, log logger.Logger) bool {
	if len(data) == 0 {
		log.Debug("Frame without data dropped")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Debug("Malformed frame data dropped", "error", err)
		return false
	}
	return true
}
