package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wavechat/internal/domain"
	"wavechat/internal/security"
)

// Domain-rule violations surfaced to callers as ack failures.
var (
	ErrEmptyContent         = errors.New("message content cannot be empty")
	ErrContentTooLong       = errors.New("message content exceeds 5000 characters")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrMessageDeleted       = errors.New("message is already deleted")
	ErrReplyNotFound        = errors.New("reply target not found in this conversation")
	ErrNotMessageSender     = errors.New("only the sender may modify this message")
	ErrDuplicateReaction    = errors.New("you have already reacted with this emoji")
	ErrEmojiRequired        = errors.New("emoji is required")
)

const maxContentRunes = 5000

// MessageService coordinates the message lifecycle: transactional creation
// with per-recipient status fan-out, status escalation, reactions, edits and
// deletions. Broadcasting is the gateway's concern; this service only
// persists and validates.
type MessageService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
	statuses      domain.StatusRepository
	reactions     domain.ReactionRepository
	encryptor     *security.Encryptor
}

func NewMessageService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	statuses domain.StatusRepository,
	reactions domain.ReactionRepository,
	encryptor *security.Encryptor,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		statuses:      statuses,
		reactions:     reactions,
		encryptor:     encryptor,
	}
}

type SendInput struct {
	ConversationID   int64
	Content          string
	ContentType      domain.ContentType
	Metadata         map[string]any
	ReplyToMessageID *int64
	IsForwarded      bool
}

// Send validates the sender's membership and the optional reply target, then
// creates the message with its `sent` fan-out atomically. The fan-out covers
// the active-participant set at creation time; later joiners do not get rows
// retroactively.
func (s *MessageService) Send(ctx context.Context, senderID int64, in SendInput) (*domain.Message, error) {
	if in.Content == "" {
		return nil, ErrEmptyContent
	}
	if len([]rune(in.Content)) > maxContentRunes {
		return nil, ErrContentTooLong
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	isParticipant, err := s.participants.IsActiveParticipant(ctx, in.ConversationID, senderID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !isParticipant {
		return nil, domain.ErrNotParticipant
	}

	if in.ReplyToMessageID != nil {
		target, err := s.messages.GetByID(ctx, *in.ReplyToMessageID)
		if err != nil {
			return nil, fmt.Errorf("get reply target: %w", err)
		}
		if target == nil || target.ConversationID != in.ConversationID {
			return nil, ErrReplyNotFound
		}
	}

	recipients, err := s.participants.ListActiveIDs(ctx, in.ConversationID, senderID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}

	encrypted, err := s.encryptor.Encrypt(in.Content)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = domain.ContentText
	}
	msg := &domain.Message{
		ConversationID:   in.ConversationID,
		SenderID:         senderID,
		ContentType:      contentType,
		Content:          encrypted,
		Metadata:         in.Metadata,
		ReplyToMessageID: in.ReplyToMessageID,
		IsForwarded:      in.IsForwarded,
	}
	if err := s.messages.Create(ctx, msg, recipients); err != nil {
		return nil, err
	}
	return msg, nil
}

// StatusUpdate describes one delivery-state escalation, broadcast to the room.
type StatusUpdate struct {
	MessageID      int64                 `json:"messageId"`
	ConversationID int64                 `json:"conversationId"`
	AccountID      int64                 `json:"accountId"`
	Status         domain.DeliveryStatus `json:"status"`
}

// Escalate records the caller's own delivered/read fact for a message. Rows
// are independent facts, not a validated ladder: `read` is accepted without a
// prior `delivered` row, and a duplicate is an idempotent success.
func (s *MessageService) Escalate(ctx context.Context, accountID, conversationID, messageID int64, status domain.DeliveryStatus) (*StatusUpdate, error) {
	if _, err := s.mustGetMessage(ctx, conversationID, messageID); err != nil {
		return nil, err
	}
	if _, err := s.statuses.Escalate(ctx, messageID, accountID, status); err != nil {
		return nil, err
	}
	return &StatusUpdate{
		MessageID:      messageID,
		ConversationID: conversationID,
		AccountID:      accountID,
		Status:         status,
	}, nil
}

// ReactionEvent describes a reaction addition or removal.
type ReactionEvent struct {
	MessageID      int64  `json:"messageId"`
	ConversationID int64  `json:"conversationId"`
	AccountID      int64  `json:"accountId"`
	Emoji          string `json:"emoji,omitempty"`
}

// React adds the caller's reaction. A duplicate (message, account, emoji)
// triple is rejected as a conflict, not silently ignored.
func (s *MessageService) React(ctx context.Context, accountID, conversationID, messageID int64, emoji string) (*ReactionEvent, error) {
	if emoji == "" {
		return nil, ErrEmojiRequired
	}
	if _, err := s.mustGetMessage(ctx, conversationID, messageID); err != nil {
		return nil, err
	}
	err := s.reactions.Create(ctx, &domain.MessageReaction{
		MessageID: messageID,
		AccountID: accountID,
		Emoji:     emoji,
	})
	if errors.Is(err, domain.ErrConflict) {
		return nil, ErrDuplicateReaction
	}
	if err != nil {
		return nil, err
	}
	return &ReactionEvent{
		MessageID:      messageID,
		ConversationID: conversationID,
		AccountID:      accountID,
		Emoji:          emoji,
	}, nil
}

// DeleteReaction removes the caller's own reaction rows. An empty emoji
// removes all of the caller's reactions on the message.
func (s *MessageService) DeleteReaction(ctx context.Context, accountID, conversationID, messageID int64, emoji string) (*ReactionEvent, error) {
	if _, err := s.mustGetMessage(ctx, conversationID, messageID); err != nil {
		return nil, err
	}
	if err := s.reactions.Delete(ctx, messageID, accountID, emoji); err != nil {
		return nil, err
	}
	return &ReactionEvent{
		MessageID:      messageID,
		ConversationID: conversationID,
		AccountID:      accountID,
		Emoji:          emoji,
	}, nil
}

// Edit replaces the content of the caller's own message. Editing a deleted
// message or someone else's message is rejected.
func (s *MessageService) Edit(ctx context.Context, accountID, conversationID, messageID int64, content string) (*domain.Message, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len([]rune(content)) > maxContentRunes {
		return nil, ErrContentTooLong
	}
	msg, err := s.mustGetMessage(ctx, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Deleted() {
		return nil, ErrMessageDeleted
	}
	if msg.SenderID != accountID {
		return nil, ErrNotMessageSender
	}

	encrypted, err := s.encryptor.Encrypt(content)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}
	if err := s.messages.UpdateContent(ctx, messageID, encrypted); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	msg.Content = encrypted
	msg.EditedAt = &now
	return msg, nil
}

// DeleteForMe hides the message from the caller only. The shared row is
// untouched; other participants still see it. Never broadcast.
func (s *MessageService) DeleteForMe(ctx context.Context, accountID, conversationID, messageID int64) error {
	if _, err := s.mustGetMessage(ctx, conversationID, messageID); err != nil {
		return err
	}
	return s.messages.HideForAccount(ctx, messageID, accountID)
}

// DeleteForEveryone soft-deletes the caller's own message for all
// participants.
func (s *MessageService) DeleteForEveryone(ctx context.Context, accountID, conversationID, messageID int64) (*domain.Message, error) {
	msg, err := s.mustGetMessage(ctx, conversationID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != accountID {
		return nil, ErrNotMessageSender
	}
	if msg.Deleted() {
		return nil, ErrMessageDeleted
	}
	if err := s.messages.SoftDeleteForEveryone(ctx, messageID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	deletion := domain.DeleteForEveryone
	msg.DeletedAt = &now
	msg.DeletionType = &deletion
	return msg, nil
}

// mustGetMessage loads the message and checks it belongs to the conversation
// the caller named. A mismatched pair reads the same as a missing message.
func (s *MessageService) mustGetMessage(ctx context.Context, conversationID, messageID int64) (*domain.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if msg == nil || msg.ConversationID != conversationID {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

// MessageResponse mirrors the payload sent in acks and room broadcasts.
type MessageResponse struct {
	ID               int64              `json:"id"`
	ConversationID   int64              `json:"conversationId"`
	SenderID         int64              `json:"senderId"`
	ContentType      domain.ContentType `json:"type"`
	Content          string             `json:"content"`
	Metadata         map[string]any     `json:"metadata,omitempty"`
	ReplyToMessageID *int64             `json:"replyToMessageId,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
	EditedAt         *time.Time         `json:"editedAt,omitempty"`
	IsDeleted        bool               `json:"isDeleted"`
	IsForwarded      bool               `json:"isForwarded"`
	TempID           string             `json:"tempId,omitempty"`
}

// ToResponse converts a domain message into a decrypted response DTO.
func (s *MessageService) ToResponse(m *domain.Message) *MessageResponse {
	content := m.Content
	if !m.Deleted() {
		if dec, err := s.encryptor.Decrypt(m.Content); err == nil {
			content = dec
		}
	} else {
		content = ""
	}
	return &MessageResponse{
		ID:               m.ID,
		ConversationID:   m.ConversationID,
		SenderID:         m.SenderID,
		ContentType:      m.ContentType,
		Content:          content,
		Metadata:         m.Metadata,
		ReplyToMessageID: m.ReplyToMessageID,
		CreatedAt:        m.CreatedAt,
		EditedAt:         m.EditedAt,
		IsDeleted:        m.Deleted(),
		IsForwarded:      m.IsForwarded,
	}
}
