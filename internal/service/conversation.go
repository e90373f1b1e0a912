package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"

	"messenger/internal/domain"
	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

type ConversationService interface {
	// CreateDirect находит или создаёт личную беседу. created=false, если беседа уже была.
	CreateDirect(ctx context.Context, requesterID, otherUserID int64) (view *domain.ConversationView, created bool, err error)
	CreateGroup(ctx context.Context, requesterID int64, name string, memberIDs []int64) (*domain.ConversationView, error)
	ListFor(ctx context.Context, userID int64) ([]*domain.ConversationView, error)
	ListGroupsFor(ctx context.Context, userID int64) ([]*domain.ConversationView, error)
	Get(ctx context.Context, userID, conversationID int64) (*domain.ConversationView, error)
}

type conversationService struct {
	userRepo         repository.UserRepository
	conversationRepo repository.ConversationRepository
	participantRepo  repository.ParticipantRepository
	messageRepo      repository.MessageRepository
	access           AccessService
	audit            AuditService
	log              logger.Logger
}

func NewConversationService(
	userRepo repository.UserRepository,
	conversationRepo repository.ConversationRepository,
	participantRepo repository.ParticipantRepository,
	messageRepo repository.MessageRepository,
	access AccessService,
	audit AuditService,
	log logger.Logger,
) ConversationService {
	return &conversationService{
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
		participantRepo:  participantRepo,
		messageRepo:      messageRepo,
		access:           access,
		audit:            audit,
		log:              log,
	}
}

func (s *conversationService) CreateDirect(ctx context.Context, requesterID, otherUserID int64) (*domain.ConversationView, bool, error) {
	if otherUserID <= 0 {
		return nil, false, apperrors.Validation("userId is required")
	}
	if otherUserID == requesterID {
		return nil, false, apperrors.Validation("cannot start a conversation with yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, otherUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, apperrors.NotFound("user not found")
		}
		return nil, false, apperrors.Internal(err, "failed to load user")
	}

	conv, err := s.conversationRepo.FindDirect(ctx, requesterID, otherUserID)
	switch {
	case err == nil:
		view, err := s.enrichOne(ctx, conv)
		return view, false, err
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, apperrors.Internal(err, "failed to find conversation")
	}

	created := true
	conv, err = s.conversationRepo.CreateDirect(ctx, requesterID, otherUserID)
	if errors.Is(err, repository.ErrAlreadyExists) {
		// Параллельный запрос успел создать беседу: возвращаем его результат.
		created = false
		conv, err = s.conversationRepo.FindDirect(ctx, requesterID, otherUserID)
	}
	if err != nil {
		return nil, false, apperrors.Internal(err, "failed to create conversation")
	}

	if created {
		s.audit.LogEvent(ctx, &requesterID, &conv.ID, domain.EventTypeConversationCreated, map[string]interface{}{
			"participants": []int64{requesterID, otherUserID},
		})
		s.log.Info("Direct conversation created", "conversation_id", conv.ID, "user_id", requesterID)
	}

	view, err := s.enrichOne(ctx, conv)
	return view, created, err
}

func (s *conversationService) CreateGroup(ctx context.Context, requesterID int64, name string, memberIDs []int64) (*domain.ConversationView, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(memberIDs) == 0 {
		return nil, apperrors.Validation("group name and at least one participant are required")
	}
	if utf8.RuneCountInString(name) > domain.GroupNameMaxLength {
		return nil, apperrors.Validation("group name is too long (max %d characters)", domain.GroupNameMaxLength)
	}
	if lo.SomeBy(memberIDs, func(id int64) bool { return id <= 0 }) {
		return nil, apperrors.Validation("participant ids must be positive")
	}

	members := lo.Uniq(append([]int64{requesterID}, memberIDs...))

	existing, err := s.userRepo.ExistingIDs(ctx, members)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check participants")
	}
	if missing := lo.Without(members, existing...); len(missing) > 0 {
		return nil, apperrors.NotFound("users not found: %v", missing)
	}

	conv, err := s.conversationRepo.CreateGroup(ctx, name, members)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to create group")
	}

	s.audit.LogEvent(ctx, &requesterID, &conv.ID, domain.EventTypeGroupCreated, map[string]interface{}{
		"name":         name,
		"participants": members,
	})
	s.log.Info("Group created", "conversation_id", conv.ID, "user_id", requesterID, "members", len(members))

	return s.enrichOne(ctx, conv)
}

func (s *conversationService) ListFor(ctx context.Context, userID int64) ([]*domain.ConversationView, error) {
	return s.list(ctx, userID, false)
}

func (s *conversationService) ListGroupsFor(ctx context.Context, userID int64) ([]*domain.ConversationView, error) {
	return s.list(ctx, userID, true)
}

func (s *conversationService) list(ctx context.Context, userID int64, groupsOnly bool) ([]*domain.ConversationView, error) {
	convs, err := s.conversationRepo.ListForUser(ctx, userID, groupsOnly)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list conversations")
	}

	views, err := s.enrich(ctx, convs)
	if err != nil {
		return nil, err
	}

	// Сначала беседы с самой свежей активностью.
	sort.SliceStable(views, func(i, j int) bool {
		return lastActivity(views[i]).After(lastActivity(views[j]))
	})

	return views, nil
}

func (s *conversationService) Get(ctx context.Context, userID, conversationID int64) (*domain.ConversationView, error) {
	if conversationID <= 0 {
		return nil, apperrors.Validation("invalid conversation id")
	}

	conv, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("conversation not found")
		}
		return nil, apperrors.Internal(err, "failed to load conversation")
	}

	if _, err := s.access.RequireParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	return s.enrichOne(ctx, conv)
}

func (s *conversationService) enrichOne(ctx context.Context, conv *domain.Conversation) (*domain.ConversationView, error) {
	views, err := s.enrich(ctx, []*domain.Conversation{conv})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// enrich добавляет участников и последнее сообщение: два запроса на весь список.
func (s *conversationService) enrich(ctx context.Context, convs []*domain.Conversation) ([]*domain.ConversationView, error) {
	if len(convs) == 0 {
		return []*domain.ConversationView{}, nil
	}

	ids := lo.Map(convs, func(c *domain.Conversation, _ int) int64 { return c.ID })

	participants, err := s.participantRepo.UsersByConversation(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load participants")
	}

	latest, err := s.messageRepo.LatestByConversation(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load last messages")
	}

	return lo.Map(convs, func(c *domain.Conversation, _ int) *domain.ConversationView {
		users := participants[c.ID]
		if users == nil {
			users = []*domain.User{}
		}
		return &domain.ConversationView{
			Conversation: *c,
			Participants: users,
			LastMessage:  latest[c.ID],
		}
	}), nil
}

func lastActivity(v *domain.ConversationView) time.Time {
	if v.LastMessage != nil {
		return v.LastMessage.CreatedAt
	}
	return v.CreatedAt
}
