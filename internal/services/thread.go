package services

import (
	"messaging_backend/internal/models/chat"
	"messaging_backend/internal/repositories"

	"gorm.io/gorm"
)

// AttachReply links msg under parent. The reply joins the parent's thread
// and conversation.
func AttachReply(parent, msg *chat.Message) {
	parentID := parent.ID
	msg.ParentID = &parentID

	root := parent.RootID()
	msg.ThreadRootID = &root

	if msg.ConversationID == nil && parent.ConversationID != nil {
		conversationID := *parent.ConversationID
		msg.ConversationID = &conversationID
	}
}

// FinalizeRoot makes a freshly inserted top-level message its own thread root.
// The id only exists after the insert, hence the second targeted update.
func FinalizeRoot(db *gorm.DB, repo repositories.ChatRepository, msg *chat.Message) error {
	if msg.ParentID != nil || msg.ThreadRootID != nil {
		return nil
	}
	if err := repo.SetThreadRoot(db, msg.ID, msg.ID); err != nil {
		return err
	}
	root := msg.ID
	msg.ThreadRootID = &root
	return nil
}

// GetThread returns every message of msg's thread, oldest first.
func GetThread(db *gorm.DB, repo repositories.ChatRepository, msg *chat.Message) ([]chat.Message, error) {
	return repo.FindThread(db, msg.RootID())
}

type ThreadNode struct {
	Message *chat.Message
	Replies []*ThreadNode
}

// BuildThreadTree turns a flat, ordered message list into a forest. Messages
// whose parent is not in the list become roots. Root and reply order follow
// the input order.
func BuildThreadTree(messages []chat.Message) []*ThreadNode {
	nodes := make(map[string]*ThreadNode, len(messages))
	for i := range messages {
		nodes[messages[i].ID] = &ThreadNode{Message: &messages[i], Replies: []*ThreadNode{}}
	}

	roots := make([]*ThreadNode, 0)
	for i := range messages {
		node := nodes[messages[i].ID]
		if pid := messages[i].ParentID; pid != nil {
			if parent, ok := nodes[*pid]; ok && parent != node {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
