package domain

import (
	"context"
)

// AccountRepository defines read operations for accounts. Account creation
// and mutation belong to the REST layer.
type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*Account, error)
}

// RefreshTokenRepository looks up stored session records during the
// connection handshake.
type RefreshTokenRepository interface {
	// FindActive returns the non-revoked, unexpired refresh-token record for
	// the given session and account, or nil if none exists.
	FindActive(ctx context.Context, sessionID string, accountID int64) (*RefreshToken, error)
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	GetByID(ctx context.Context, id int64) (*Conversation, error)
}

// ParticipantRepository defines operations around conversation membership.
// These are the narrow interfaces the messaging core consumes from the
// out-of-scope membership administration.
type ParticipantRepository interface {
	IsActiveParticipant(ctx context.Context, conversationID, accountID int64) (bool, error)
	// ListActiveIDs returns account IDs of all active participants. When
	// exclude is non-zero that account is omitted.
	ListActiveIDs(ctx context.Context, conversationID, exclude int64) ([]int64, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Create inserts the message, one `sent` status row per recipient, and
	// bumps the conversation's last_message_at, all in one transaction.
	Create(ctx context.Context, m *Message, recipientIDs []int64) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	// UpdateContent sets new content and edited_at on the message.
	UpdateContent(ctx context.Context, id int64, content string) error
	// SoftDeleteForEveryone sets deleted_at and deletion_type=for_everyone.
	SoftDeleteForEveryone(ctx context.Context, id int64) error
	// HideForAccount records a delete-for-me suppression for one account.
	HideForAccount(ctx context.Context, messageID, accountID int64) error
}

// StatusRepository records per-recipient delivery-state escalations.
type StatusRepository interface {
	// Escalate adds a status row for (message, account, status). Returns
	// false when the row already existed; duplicates are not an error.
	Escalate(ctx context.Context, messageID, accountID int64, status DeliveryStatus) (bool, error)
	ListForMessage(ctx context.Context, messageID int64) ([]*MessageStatus, error)
}

// ReactionRepository stores emoji reactions.
type ReactionRepository interface {
	// Create inserts the reaction. A duplicate (message, account, emoji)
	// triple returns ErrConflict.
	Create(ctx context.Context, r *MessageReaction) error
	// Delete removes the account's reaction rows on the message. An empty
	// emoji removes all of that account's reactions on the message.
	Delete(ctx context.Context, messageID, accountID int64, emoji string) error
}
