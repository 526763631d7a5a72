package repositories

import (
	"errors"
	"strings"
	"time"

	"messaging_backend/internal/models/chat"

	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
)

type ChatRepository interface {
	// Conversation operations
	CreateConversation(db *gorm.DB, conversation *chat.Conversation) error
	FindConversationByID(db *gorm.DB, id string) (*chat.Conversation, error)
	FindUserConversations(db *gorm.DB, userID string, criteria ConversationCriteria) ([]chat.Conversation, int64, error)
	IsParticipant(db *gorm.DB, conversationID, userID string) (bool, error)
	DeleteConversation(db *gorm.DB, id string) error
	RemoveUserMemberships(db *gorm.DB, userID string) error

	// Message operations
	CreateMessage(db *gorm.DB, message *chat.Message) error
	FindMessageByID(db *gorm.DB, id string) (*chat.Message, error)
	GetMessageOrNone(db *gorm.DB, id string) (*chat.Message, error)
	UpdateMessageContent(db *gorm.DB, message *chat.Message) error
	SetThreadRoot(db *gorm.DB, messageID, rootID string) error
	MarkMessageRead(db *gorm.DB, messageID string) error
	DeleteMessage(db *gorm.DB, id string) error
	FindThread(db *gorm.DB, rootID string) ([]chat.Message, error)
	FindUserMessages(db *gorm.DB, userID string, criteria MessageCriteria) ([]chat.Message, int64, error)
	FindConversationMessages(db *gorm.DB, conversationID string, page Pagination) ([]chat.Message, int64, error)
	FindUnreadFor(db *gorm.DB, userID string) ([]chat.Message, error)
	MessageIDsByParticipant(db *gorm.DB, userID string) ([]string, error)
	MessageIDsByConversation(db *gorm.DB, conversationID string) ([]string, error)
	DeleteMessagesByIDs(db *gorm.DB, ids []string) error

	// History operations
	CreateHistory(db *gorm.DB, history *chat.MessageHistory) error
	FindHistory(db *gorm.DB, messageID string) ([]chat.MessageHistory, error)
	DeleteHistoryByMessageIDs(db *gorm.DB, messageIDs []string) error
	DeleteOrphanedHistory(db *gorm.DB) error

	GetChatStats(db *gorm.DB) (*ChatStats, error)
}

type ChatRepositoryImpl struct{}

type ChatStats struct {
	Conversations  int64 `json:"conversations"`
	Messages       int64 `json:"messages"`
	UnreadMessages int64 `json:"unread_messages"`
	HistoryRows    int64 `json:"history_rows"`
}

func NewChatRepository() ChatRepository {
	return &ChatRepositoryImpl{}
}

// --- Conversation operations ---

// CreateConversation writes the join rows; participants must already exist.
func (r *ChatRepositoryImpl) CreateConversation(db *gorm.DB, conversation *chat.Conversation) error {
	return db.Omit("Participants.*").Create(conversation).Error
}

func (r *ChatRepositoryImpl) FindConversationByID(db *gorm.DB, id string) (*chat.Conversation, error) {
	var conversation chat.Conversation
	err := db.Preload("Participants").First(&conversation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

// ConversationCriteria filters FindUserConversations. Search matches any
// participant's email.
type ConversationCriteria struct {
	Search   string
	Ordering string
	Pagination
}

// MessageCriteria filters FindUserMessages. Search matches the content or
// the sender's email.
type MessageCriteria struct {
	Search         string
	Ordering       string
	ConversationID string
	Pagination
}

var (
	conversationOrderings = map[string]string{"created_at": "created_at"}
	messageOrderings      = map[string]string{"sent_at": "created_at", "created_at": "created_at"}
)

func (r *ChatRepositoryImpl) FindUserConversations(db *gorm.DB, userID string, criteria ConversationCriteria) ([]chat.Conversation, int64, error) {
	var conversations []chat.Conversation
	memberOf := db.Table("conversation_participants").Select("conversation_id").Where("user_id = ?", userID)
	query := db.Model(&chat.Conversation{}).Where("id IN (?)", memberOf)

	if strings.TrimSpace(criteria.Search) != "" {
		matching := db.Table("conversation_participants").
			Select("conversation_participants.conversation_id").
			Joins("JOIN users ON users.id = conversation_participants.user_id").
			Where("LOWER(users.email) LIKE ?", containsPattern(criteria.Search))
		query = query.Where("id IN (?)", matching)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := criteria.apply(query).
		Preload("Participants").
		Order(orderBy(criteria.Ordering, conversationOrderings, "created_at DESC")).
		Find(&conversations).Error
	return conversations, total, err
}

func (r *ChatRepositoryImpl) IsParticipant(db *gorm.DB, conversationID, userID string) (bool, error) {
	var count int64
	err := db.Table("conversation_participants").
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// DeleteConversation removes the membership rows first; sqlite does not
// enforce the join table's cascade unless foreign keys are switched on.
func (r *ChatRepositoryImpl) DeleteConversation(db *gorm.DB, id string) error {
	if err := db.Exec("DELETE FROM conversation_participants WHERE conversation_id = ?", id).Error; err != nil {
		return err
	}
	result := db.Delete(&chat.Conversation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (r *ChatRepositoryImpl) RemoveUserMemberships(db *gorm.DB, userID string) error {
	return db.Exec("DELETE FROM conversation_participants WHERE user_id = ?", userID).Error
}

// --- Message operations ---

func (r *ChatRepositoryImpl) CreateMessage(db *gorm.DB, message *chat.Message) error {
	// Associations are referenced by ID only.
	return db.Omit("Sender", "Receiver", "Conversation").Create(message).Error
}

func (r *ChatRepositoryImpl) FindMessageByID(db *gorm.DB, id string) (*chat.Message, error) {
	var message chat.Message
	err := db.Preload("Conversation.Participants").First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

// GetMessageOrNone returns (nil, nil) when no message has the id.
func (r *ChatRepositoryImpl) GetMessageOrNone(db *gorm.DB, id string) (*chat.Message, error) {
	var messages []chat.Message
	if err := db.Where("id = ?", id).Limit(1).Find(&messages).Error; err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &messages[0], nil
}

func (r *ChatRepositoryImpl) UpdateMessageContent(db *gorm.DB, message *chat.Message) error {
	result := db.Model(&chat.Message{}).
		Where("id = ?", message.ID).
		Updates(map[string]interface{}{
			"content":      message.Content,
			"edited":       message.Edited,
			"edited_by_id": message.EditedByID,
			"edited_at":    message.EditedAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *ChatRepositoryImpl) SetThreadRoot(db *gorm.DB, messageID, rootID string) error {
	return db.Model(&chat.Message{}).
		Where("id = ?", messageID).
		UpdateColumn("thread_root_id", rootID).Error
}

// MarkMessageRead is idempotent; callers load the message first.
func (r *ChatRepositoryImpl) MarkMessageRead(db *gorm.DB, messageID string) error {
	return db.Model(&chat.Message{}).
		Where("id = ?", messageID).
		UpdateColumn("is_read", true).Error
}

func (r *ChatRepositoryImpl) DeleteMessage(db *gorm.DB, id string) error {
	result := db.Delete(&chat.Message{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *ChatRepositoryImpl) FindThread(db *gorm.DB, rootID string) ([]chat.Message, error) {
	var messages []chat.Message
	err := db.Where("thread_root_id = ?", rootID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *ChatRepositoryImpl) FindUserMessages(db *gorm.DB, userID string, criteria MessageCriteria) ([]chat.Message, int64, error) {
	var messages []chat.Message
	query := db.Model(&chat.Message{}).Where("sender_id = ? OR receiver_id = ?", userID, userID)

	if criteria.ConversationID != "" {
		query = query.Where("conversation_id = ?", criteria.ConversationID)
	}
	if strings.TrimSpace(criteria.Search) != "" {
		pattern := containsPattern(criteria.Search)
		senders := db.Table("users").Select("id").Where("LOWER(email) LIKE ?", pattern)
		query = query.Where("LOWER(content) LIKE ? OR sender_id IN (?)", pattern, senders)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := criteria.apply(query).
		Order(orderBy(criteria.Ordering, messageOrderings, "created_at DESC")).
		Find(&messages).Error
	return messages, total, err
}

func (r *ChatRepositoryImpl) FindConversationMessages(db *gorm.DB, conversationID string, page Pagination) ([]chat.Message, int64, error) {
	var messages []chat.Message
	query := db.Model(&chat.Message{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := page.apply(query).Order("created_at DESC").Find(&messages).Error
	return messages, total, err
}

// FindUnreadFor loads only the columns the unread view renders.
func (r *ChatRepositoryImpl) FindUnreadFor(db *gorm.DB, userID string) ([]chat.Message, error) {
	var messages []chat.Message
	err := db.Model(&chat.Message{}).
		Select("id", "sender_id", "receiver_id", "content", "created_at", "parent_id").
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&messages).Error
	return messages, err
}

func (r *ChatRepositoryImpl) MessageIDsByParticipant(db *gorm.DB, userID string) ([]string, error) {
	var ids []string
	err := db.Model(&chat.Message{}).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ChatRepositoryImpl) MessageIDsByConversation(db *gorm.DB, conversationID string) ([]string, error) {
	var ids []string
	err := db.Model(&chat.Message{}).
		Where("conversation_id = ?", conversationID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ChatRepositoryImpl) DeleteMessagesByIDs(db *gorm.DB, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Where("id IN ?", ids).Delete(&chat.Message{}).Error
}

// --- History operations ---

func (r *ChatRepositoryImpl) CreateHistory(db *gorm.DB, history *chat.MessageHistory) error {
	return db.Omit("Message").Create(history).Error
}

func (r *ChatRepositoryImpl) FindHistory(db *gorm.DB, messageID string) ([]chat.MessageHistory, error) {
	var rows []chat.MessageHistory
	err := db.Where("message_id = ?", messageID).
		Order("edited_at DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *ChatRepositoryImpl) DeleteHistoryByMessageIDs(db *gorm.DB, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	return db.Where("message_id IN ?", messageIDs).Delete(&chat.MessageHistory{}).Error
}

func (r *ChatRepositoryImpl) DeleteOrphanedHistory(db *gorm.DB) error {
	return db.Where("message_id NOT IN (?)", db.Table("messages").Select("id")).
		Delete(&chat.MessageHistory{}).Error
}

func (r *ChatRepositoryImpl) GetChatStats(db *gorm.DB) (*ChatStats, error) {
	var stats ChatStats
	if err := db.Model(&chat.Conversation{}).Count(&stats.Conversations).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&chat.Message{}).Count(&stats.Messages).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&chat.Message{}).Where("is_read = ?", false).Count(&stats.UnreadMessages).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&chat.MessageHistory{}).Count(&stats.HistoryRows).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
