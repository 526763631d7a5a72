package services

import (
	"context"

	"messaging_backend/internal/logger"
	"messaging_backend/internal/models"
	"messaging_backend/internal/models/chat"
	"messaging_backend/internal/repositories"
	"messaging_backend/internal/services/dto"
	"messaging_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type ConversationService interface {
	CreateConversation(ctx context.Context, db *gorm.DB, id models.Identity, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error)
	ListConversations(db *gorm.DB, id models.Identity, criteria dto.ConversationCriteria) (*dto.ConversationListResponse, error)
	GetConversation(db *gorm.DB, id models.Identity, conversationID string) (*dto.ConversationResponse, error)
	DeleteConversation(ctx context.Context, db *gorm.DB, id models.Identity, conversationID string) error
	ListConversationMessages(db *gorm.DB, id models.Identity, conversationID string, page dto.PageRequest) (*dto.MessageListResponse, error)
	PostConversationMessage(ctx context.Context, db *gorm.DB, id models.Identity, conversationID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
}

type conversationService struct {
	chatRepo         repositories.ChatRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	messageService   MessageService
}

func NewConversationService(
	chatRepo repositories.ChatRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	messageService MessageService,
) ConversationService {
	return &conversationService{
		chatRepo:         chatRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		messageService:   messageService,
	}
}

// CreateConversation always adds the caller, so a conversation never starts empty.
func (s *conversationService) CreateConversation(ctx context.Context, db *gorm.DB, id models.Identity, req *dto.CreateConversationRequest) (*dto.ConversationResponse, error) {
	if !id.Authenticated() {
		return nil, apperrors.ErrAuthenticationRequired
	}

	participantIDs := removeDuplicates(append([]string{id.UserID}, req.ParticipantIDs...))

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	users, err := s.userRepo.FindByIDs(tx, participantIDs)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if len(users) != len(participantIDs) {
		return nil, apperrors.FieldError("participant_ids", "One or more users do not exist")
	}
	if len(users) == 0 {
		return nil, apperrors.FieldError("participant_ids", "A conversation needs at least one participant")
	}

	conversation := &chat.Conversation{Participants: users}
	if err := s.chatRepo.CreateConversation(tx, conversation); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Conversation created", "conversation_id", conversation.ID, "participants", len(users))
	return toConversationResponse(conversation), nil
}

func (s *conversationService) ListConversations(db *gorm.DB, id models.Identity, criteria dto.ConversationCriteria) (*dto.ConversationListResponse, error) {
	if !id.Authenticated() {
		return nil, apperrors.ErrAuthenticationRequired
	}
	conversations, total, err := s.chatRepo.FindUserConversations(db, id.UserID, repositories.ConversationCriteria{
		Search:     criteria.Search,
		Ordering:   criteria.Ordering,
		Pagination: toPagination(criteria.PageRequest),
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]*dto.ConversationResponse, 0, len(conversations))
	for i := range conversations {
		out = append(out, toConversationResponse(&conversations[i]))
	}
	p, size := pageOf(criteria.PageRequest)
	return &dto.ConversationListResponse{Conversations: out, ListMeta: dto.NewListMeta(total, p, size)}, nil
}

func (s *conversationService) load(db *gorm.DB, id models.Identity, conversationID string, action models.Action) (*chat.Conversation, error) {
	conversation, err := s.chatRepo.FindConversationByID(db, conversationID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	if err := authorize(conversation, id, action); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *conversationService) GetConversation(db *gorm.DB, id models.Identity, conversationID string) (*dto.ConversationResponse, error) {
	conversation, err := s.load(db, id, conversationID, models.ActionRead)
	if err != nil {
		return nil, err
	}
	return toConversationResponse(conversation), nil
}

// DeleteConversation removes the conversation and every message in it with
// their notifications and history.
func (s *conversationService) DeleteConversation(ctx context.Context, db *gorm.DB, id models.Identity, conversationID string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	conversation, err := s.load(tx, id, conversationID, models.ActionDelete)
	if err != nil {
		return err
	}

	messageIDs, err := s.chatRepo.MessageIDsByConversation(tx, conversation.ID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.notificationRepo.DeleteByMessageIDs(tx, messageIDs); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.chatRepo.DeleteHistoryByMessageIDs(tx, messageIDs); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.chatRepo.DeleteMessagesByIDs(tx, messageIDs); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.chatRepo.DeleteConversation(tx, conversation.ID); err != nil {
		return handleRepoError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Conversation deleted", "conversation_id", conversation.ID, "messages", len(messageIDs))
	return nil
}

func (s *conversationService) ListConversationMessages(db *gorm.DB, id models.Identity, conversationID string, page dto.PageRequest) (*dto.MessageListResponse, error) {
	conversation, err := s.load(db, id, conversationID, models.ActionRead)
	if err != nil {
		return nil, err
	}
	messages, total, err := s.chatRepo.FindConversationMessages(db, conversation.ID, toPagination(page))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	p, size := pageOf(page)
	return &dto.MessageListResponse{
		Messages: toMessageResponses(messages),
		ListMeta: dto.NewListMeta(total, p, size),
	}, nil
}

// PostConversationMessage sends into the conversation named by the path.
// Membership is checked by SendMessage.
func (s *conversationService) PostConversationMessage(ctx context.Context, db *gorm.DB, id models.Identity, conversationID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	scoped := *req
	scoped.ConversationID = &conversationID
	return s.messageService.SendMessage(ctx, db, id, &scoped)
}
