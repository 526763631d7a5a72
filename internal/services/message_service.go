package services

import (
	"context"
	"errors"

	"messaging_backend/internal/events"
	"messaging_backend/internal/logger"
	"messaging_backend/internal/models"
	"messaging_backend/internal/models/chat"
	"messaging_backend/internal/repositories"
	"messaging_backend/internal/services/dto"
	"messaging_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// NotificationPublisher delivers committed notifications to live clients.
type NotificationPublisher interface {
	PublishNotification(userID string, notification *dto.NotificationResponse)
}

type MessageService interface {
	SendMessage(ctx context.Context, db *gorm.DB, id models.Identity, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	EditMessage(ctx context.Context, db *gorm.DB, id models.Identity, messageID string, req *dto.EditMessageRequest) (*dto.MessageResponse, error)
	DeleteMessage(ctx context.Context, db *gorm.DB, id models.Identity, messageID string) error
	MarkRead(ctx context.Context, db *gorm.DB, id models.Identity, messageID string) (*dto.MessageResponse, error)

	GetMessage(db *gorm.DB, id models.Identity, messageID string) (*dto.MessageResponse, error)
	ListMessages(db *gorm.DB, id models.Identity, criteria dto.MessageCriteria) (*dto.MessageListResponse, error)
	GetThread(db *gorm.DB, id models.Identity, messageID string) (*dto.ThreadResponse, error)
	GetThreadTree(db *gorm.DB, id models.Identity, messageID string) (*dto.ThreadTreeResponse, error)
	GetHistory(db *gorm.DB, id models.Identity, messageID string) ([]*dto.HistoryResponse, error)
	UnreadFor(db *gorm.DB, id models.Identity) ([]*dto.UnreadMessageResponse, error)
}

type messageService struct {
	chatRepo         repositories.ChatRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	bus              *events.Bus
	publisher        NotificationPublisher
}

// NewMessageService wires the message operations. publisher may be nil.
func NewMessageService(
	chatRepo repositories.ChatRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	bus *events.Bus,
	publisher NotificationPublisher,
) MessageService {
	return &messageService{
		chatRepo:         chatRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		bus:              bus,
		publisher:        publisher,
	}
}

// ---------------- Mutations ----------------

func (s *messageService) SendMessage(ctx context.Context, db *gorm.DB, id models.Identity, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	if !id.Authenticated() {
		return nil, apperrors.ErrAuthenticationRequired
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if _, err := s.userRepo.FindByID(tx, req.ReceiverID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.FieldError("receiver_id", "User does not exist")
		}
		return nil, apperrors.InternalError(err)
	}

	msg := &chat.Message{
		SenderID:       id.UserID,
		ReceiverID:     req.ReceiverID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
	}

	if req.ParentID != nil {
		parent, err := s.chatRepo.FindMessageByID(tx, *req.ParentID)
		if err != nil {
			if errors.Is(err, repositories.ErrMessageNotFound) {
				return nil, apperrors.FieldError("parent_id", "Message does not exist")
			}
			return nil, apperrors.InternalError(err)
		}
		if err := authorize(parent, id, models.ActionRead); err != nil {
			return nil, err
		}
		if req.ConversationID != nil && parent.ConversationID != nil && *req.ConversationID != *parent.ConversationID {
			return nil, apperrors.FieldError("parent_id", "Parent message belongs to another conversation")
		}
		AttachReply(parent, msg)
	}

	if msg.ConversationID != nil {
		if err := s.checkConversationMembers(tx, *msg.ConversationID, msg.SenderID, msg.ReceiverID); err != nil {
			return nil, err
		}
	}

	if err := s.bus.Publish(ctx, events.Event{
		Kind: events.BeforeSave, Entity: events.EntityMessage,
		Payload: msg, ActorID: id.UserID, DB: tx,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.chatRepo.CreateMessage(tx, msg); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := FinalizeRoot(tx, s.chatRepo, msg); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.bus.Publish(ctx, events.Event{
		Kind: events.AfterCreate, Entity: events.EntityMessage,
		Payload: msg, ActorID: id.UserID, DB: tx,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	created, err := s.notificationRepo.FindByMessageID(tx, msg.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Message sent", "message_id", msg.ID, "receiver_id", msg.ReceiverID)
	s.push(created)

	return toMessageResponse(msg), nil
}

// checkConversationMembers validates a conversation-scoped send.
func (s *messageService) checkConversationMembers(tx *gorm.DB, conversationID, senderID, receiverID string) error {
	conversation, err := s.chatRepo.FindConversationByID(tx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return apperrors.FieldError("conversation_id", "Conversation does not exist")
		}
		return apperrors.InternalError(err)
	}
	if !conversation.HasParticipant(senderID) {
		return apperrors.FieldError("sender", "You are not a participant of this conversation.")
	}
	if !conversation.HasParticipant(receiverID) {
		return apperrors.FieldError("receiver_id", "Receiver is not a participant of this conversation.")
	}
	return nil
}

func (s *messageService) push(notifications []models.Notification) {
	if s.publisher == nil {
		return
	}
	for i := range notifications {
		n := &notifications[i]
		s.publisher.PublishNotification(n.UserID, toNotificationResponse(n))
	}
}

func (s *messageService) EditMessage(ctx context.Context, db *gorm.DB, id models.Identity, messageID string, req *dto.EditMessageRequest) (*dto.MessageResponse, error) {
	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	current, err := s.chatRepo.FindMessageByID(tx, messageID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	if err := authorize(current, id, models.ActionWrite); err != nil {
		return nil, err
	}

	prior := *current
	next := *current
	next.Content = req.Content

	if err := s.bus.Publish(ctx, events.Event{
		Kind: events.BeforeSave, Entity: events.EntityMessage,
		Payload: &next, Prior: &prior, ActorID: id.UserID, DB: tx,
	}); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.chatRepo.UpdateMessageContent(tx, &next); err != nil {
		return nil, handleRepoError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Message edited", "message_id", next.ID, "edited", next.Edited)
	return toMessageResponse(&next), nil
}

// DeleteMessage removes the message with its notifications and history.
// Replies keep their parent id and surface as roots in a thread tree.
func (s *messageService) DeleteMessage(ctx context.Context, db *gorm.DB, id models.Identity, messageID string) error {
	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	msg, err := s.chatRepo.FindMessageByID(tx, messageID)
	if err != nil {
		return handleRepoError(err)
	}
	if err := authorize(msg, id, models.ActionDelete); err != nil {
		return err
	}

	ids := []string{msg.ID}
	if err := s.notificationRepo.DeleteByMessageIDs(tx, ids); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.chatRepo.DeleteHistoryByMessageIDs(tx, ids); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.chatRepo.DeleteMessage(tx, msg.ID); err != nil {
		return handleRepoError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Message deleted", "message_id", msg.ID)
	return nil
}

func (s *messageService) MarkRead(ctx context.Context, db *gorm.DB, id models.Identity, messageID string) (*dto.MessageResponse, error) {
	msg, err := s.chatRepo.FindMessageByID(db, messageID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	if err := authorize(msg, id, models.ActionAcknowledge); err != nil {
		return nil, err
	}
	if err := s.chatRepo.MarkMessageRead(db, msg.ID); err != nil {
		return nil, apperrors.InternalError(err)
	}
	msg.Read = true

	logger.CtxDebug(ctx, "Message marked read", "message_id", msg.ID)
	return toMessageResponse(msg), nil
}

// ---------------- Queries ----------------

func (s *messageService) loadReadable(db *gorm.DB, id models.Identity, messageID string) (*chat.Message, error) {
	msg, err := s.chatRepo.FindMessageByID(db, messageID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	if err := authorize(msg, id, models.ActionRead); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) GetMessage(db *gorm.DB, id models.Identity, messageID string) (*dto.MessageResponse, error) {
	msg, err := s.loadReadable(db, id, messageID)
	if err != nil {
		return nil, err
	}
	return toMessageResponse(msg), nil
}

func (s *messageService) ListMessages(db *gorm.DB, id models.Identity, criteria dto.MessageCriteria) (*dto.MessageListResponse, error) {
	if !id.Authenticated() {
		return nil, apperrors.ErrAuthenticationRequired
	}
	messages, total, err := s.chatRepo.FindUserMessages(db, id.UserID, repositories.MessageCriteria{
		Search:         criteria.Search,
		Ordering:       criteria.Ordering,
		ConversationID: criteria.ConversationID,
		Pagination:     toPagination(criteria.PageRequest),
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	p, size := pageOf(criteria.PageRequest)
	return &dto.MessageListResponse{
		Messages: toMessageResponses(messages),
		ListMeta: dto.NewListMeta(total, p, size),
	}, nil
}

func (s *messageService) GetThread(db *gorm.DB, id models.Identity, messageID string) (*dto.ThreadResponse, error) {
	msg, err := s.loadReadable(db, id, messageID)
	if err != nil {
		return nil, err
	}
	messages, err := GetThread(db, s.chatRepo, msg)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.ThreadResponse{RootID: msg.RootID(), Messages: toMessageResponses(messages)}, nil
}

func (s *messageService) GetThreadTree(db *gorm.DB, id models.Identity, messageID string) (*dto.ThreadTreeResponse, error) {
	msg, err := s.loadReadable(db, id, messageID)
	if err != nil {
		return nil, err
	}
	messages, err := GetThread(db, s.chatRepo, msg)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.ThreadTreeResponse{RootID: msg.RootID(), Roots: toThreadNodeResponses(BuildThreadTree(messages))}, nil
}

func toThreadNodeResponses(nodes []*ThreadNode) []*dto.ThreadNodeResponse {
	out := make([]*dto.ThreadNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &dto.ThreadNodeResponse{
			MessageResponse: *toMessageResponse(n.Message),
			Replies:         toThreadNodeResponses(n.Replies),
		})
	}
	return out
}

func (s *messageService) GetHistory(db *gorm.DB, id models.Identity, messageID string) ([]*dto.HistoryResponse, error) {
	msg, err := s.loadReadable(db, id, messageID)
	if err != nil {
		return nil, err
	}
	rows, err := s.chatRepo.FindHistory(db, msg.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	out := make([]*dto.HistoryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toHistoryResponse(&rows[i]))
	}
	return out, nil
}

func (s *messageService) UnreadFor(db *gorm.DB, id models.Identity) ([]*dto.UnreadMessageResponse, error) {
	if !id.Authenticated() {
		return nil, apperrors.ErrAuthenticationRequired
	}
	messages, err := s.chatRepo.FindUnreadFor(db, id.UserID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	out := make([]*dto.UnreadMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, &dto.UnreadMessageResponse{
			ID:         m.ID,
			SenderID:   m.SenderID,
			ReceiverID: m.ReceiverID,
			Content:    m.Content,
			CreatedAt:  m.CreatedAt,
			ParentID:   m.ParentID,
		})
	}
	return out, nil
}
