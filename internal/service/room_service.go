package service

import (
	"context"
	"fmt"
	"time"

	"wavechat/internal/domain"
	"wavechat/internal/presence"
)

// RoomService gates conversation-room joins on membership and builds the
// presence snapshot returned with a successful join.
type RoomService struct {
	participants domain.ParticipantRepository
	presence     presence.Store
}

func NewRoomService(participants domain.ParticipantRepository, store presence.Store) *RoomService {
	return &RoomService{
		participants: participants,
		presence:     store,
	}
}

// ParticipantStatus is one entry of the join-time presence snapshot.
type ParticipantStatus struct {
	AccountID int64      `json:"accountId"`
	Online    bool       `json:"online"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
}

// Authorize verifies the caller is an active participant of the conversation.
func (s *RoomService) Authorize(ctx context.Context, conversationID, accountID int64) error {
	ok, err := s.participants.IsActiveParticipant(ctx, conversationID, accountID)
	if err != nil {
		return fmt.Errorf("check participant: %w", err)
	}
	if !ok {
		return domain.ErrNotParticipant
	}
	return nil
}

// Snapshot merges presence state for all active participants except the
// caller, so the client can render initial online/offline state without a
// separate round trip. Accounts that never connected are reported offline.
func (s *RoomService) Snapshot(ctx context.Context, conversationID, exclude int64) ([]ParticipantStatus, error) {
	ids, err := s.participants.ListActiveIDs(ctx, conversationID, exclude)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	statuses := make([]ParticipantStatus, 0, len(ids))
	for _, id := range ids {
		st, found, err := s.presence.GetStatus(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get presence for %d: %w", id, err)
		}
		entry := ParticipantStatus{AccountID: id}
		if found {
			entry.Online = st.Online
			lastSeen := st.LastSeen
			entry.LastSeen = &lastSeen
		}
		statuses = append(statuses, entry)
	}
	return statuses, nil
}
