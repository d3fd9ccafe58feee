package domain

import "time"

// AccountStatus is the activation state of an account. Only active accounts
// may open a real-time connection.
type AccountStatus string

const (
	AccountActive      AccountStatus = "active"
	AccountSuspended   AccountStatus = "suspended"
	AccountDeactivated AccountStatus = "deactivated"
	AccountPending     AccountStatus = "pending"
)

// Account represents an application account. Accounts are provisioned by the
// REST layer; the messaging core only reads them.
type Account struct {
	ID        int64         `db:"id" json:"id"`
	Username  string        `db:"username" json:"username"`
	Email     *string       `db:"email" json:"email,omitempty"`
	Status    AccountStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	LastSeen  time.Time     `db:"last_seen" json:"lastSeen"`
}

// RefreshToken is a stored session record. The raw token is never persisted;
// only a digest is kept for comparison during the connection handshake.
type RefreshToken struct {
	ID          int64      `db:"id"`
	AccountID   int64      `db:"account_id"`
	SessionID   string     `db:"session_id"`
	TokenDigest string     `db:"token_digest"`
	RevokedAt   *time.Time `db:"revoked_at"`
	ExpiresAt   time.Time  `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

// ConversationKind distinguishes one-to-one chats from groups.
type ConversationKind string

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

// Conversation represents a chat conversation (direct or group).
type Conversation struct {
	ID            int64            `db:"id"`
	Kind          ConversationKind `db:"kind"`
	Name          *string          `db:"name"`
	AvatarURL     *string          `db:"avatar_url"`
	Description   *string          `db:"description"`
	CreatorID     int64            `db:"creator_id"`
	LastMessageAt time.Time        `db:"last_message_at"`
	CreatedAt     time.Time        `db:"created_at"`
}

// ParticipantRole is the role of an account within a conversation.
type ParticipantRole string

const (
	RoleAdmin  ParticipantRole = "admin"
	RoleMember ParticipantRole = "member"
)

// ConversationParticipant represents the membership of an account in a
// conversation. A participant is "active" while LeftAt is unset; leaving is a
// soft operation that retains history.
type ConversationParticipant struct {
	ConversationID int64           `db:"conversation_id"`
	AccountID      int64           `db:"account_id"`
	Role           ParticipantRole `db:"role"`
	JoinedAt       time.Time       `db:"joined_at"`
	LeftAt         *time.Time      `db:"left_at"`
	ClearedAt      time.Time       `db:"cleared_at"`
	IsMuted        bool            `db:"is_muted"`
	IsPinned       bool            `db:"is_pinned"`
	IsArchived     bool            `db:"is_archived"`
	LastReadAt     *time.Time      `db:"last_read_at"`
}

// ContentType is the kind of payload a message carries.
type ContentType string

const (
	ContentText    ContentType = "text"
	ContentImage   ContentType = "image"
	ContentVideo   ContentType = "video"
	ContentAudio   ContentType = "audio"
	ContentFile    ContentType = "file"
	ContentSticker ContentType = "sticker"
)

// DeletionType is the scope of a message deletion.
type DeletionType string

const (
	DeleteForMe       DeletionType = "for_me"
	DeleteForEveryone DeletionType = "for_everyone"
)

// Message represents a single chat message. Messages are soft-mutated (edit,
// soft delete) but never hard-deleted by the core. ReplyToMessageID is an
// ownership-free back-reference by id; the target must live in the same
// conversation.
type Message struct {
	ID               int64          `db:"id"`
	ConversationID   int64          `db:"conversation_id"`
	SenderID         int64          `db:"sender_id"`
	ContentType      ContentType    `db:"content_type"`
	Content          string         `db:"content"`
	Metadata         map[string]any `db:"metadata"`
	ReplyToMessageID *int64         `db:"reply_to_message_id"`
	CreatedAt        time.Time      `db:"created_at"`
	EditedAt         *time.Time     `db:"edited_at"`
	DeletedAt        *time.Time     `db:"deleted_at"`
	DeletionType     *DeletionType  `db:"deletion_type"`
	IsForwarded      bool           `db:"is_forwarded"`
}

// Deleted reports whether the message has been soft-deleted for everyone.
func (m *Message) Deleted() bool {
	return m.DeletedAt != nil
}

// DeliveryStatus is the per-recipient delivery state of a message. Rows only
// escalate: sent -> delivered -> read. A row is never deleted or downgraded.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// MessageStatus is one delivery-state fact for one recipient of one message.
// Unique on (MessageID, AccountID, Status).
type MessageStatus struct {
	MessageID int64          `db:"message_id"`
	AccountID int64          `db:"account_id"`
	Status    DeliveryStatus `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
}

// MessageReaction is one emoji reaction by one account on one message.
// Unique on (MessageID, AccountID, Emoji): an account may react with several
// distinct emoji but not duplicate the same one.
type MessageReaction struct {
	MessageID int64     `db:"message_id"`
	AccountID int64     `db:"account_id"`
	Emoji     string    `db:"emoji"`
	CreatedAt time.Time `db:"created_at"`
}
