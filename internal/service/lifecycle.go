package service

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"wavechat/internal/domain"
	"wavechat/internal/presence"
)

// Lifecycle drives the per-connection state machine:
// connecting -> authenticated -> active -> disconnected.
// It is shared by every gateway.
type Lifecycle struct {
	auth     *Authenticator
	presence presence.Store
	clock    clock.Clock
	log      *zap.Logger
}

func NewLifecycle(auth *Authenticator, store presence.Store, clk clock.Clock, log *zap.Logger) *Lifecycle {
	return &Lifecycle{
		auth:     auth,
		presence: store,
		clock:    clk,
		log:      log,
	}
}

// Connect runs the authenticator and, on success, marks the account online
// and adds the connection id to its device set. A handshake failure has no
// presence side effects.
func (l *Lifecycle) Connect(ctx context.Context, in HandshakeInput, connID string) (*domain.Account, error) {
	account, err := l.auth.Authenticate(ctx, in)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now().UTC()
	if err := l.presence.SetStatus(ctx, account.ID, presence.Status{Online: true, LastSeen: now}); err != nil {
		return nil, fmt.Errorf("set online status: %w", err)
	}
	if err := l.presence.AddConnection(ctx, account.ID, connID); err != nil {
		return nil, fmt.Errorf("add connection: %w", err)
	}

	l.log.Info("connection_established",
		zap.Int64("account_id", account.ID),
		zap.String("conn_id", connID))
	return account, nil
}

// Disconnect removes the connection id from the account's device set. The
// account transitions to offline only when its last connection closes; while
// other devices remain connected presence stays online.
func (l *Lifecycle) Disconnect(ctx context.Context, accountID int64, connID string) error {
	if err := l.presence.RemoveConnection(ctx, accountID, connID); err != nil {
		return fmt.Errorf("remove connection: %w", err)
	}
	remaining, err := l.presence.CountConnections(ctx, accountID)
	if err != nil {
		return fmt.Errorf("count connections: %w", err)
	}
	if remaining == 0 {
		now := l.clock.Now().UTC()
		if err := l.presence.SetStatus(ctx, accountID, presence.Status{Online: false, LastSeen: now}); err != nil {
			return fmt.Errorf("set offline status: %w", err)
		}
	}

	l.log.Info("connection_closed",
		zap.Int64("account_id", accountID),
		zap.String("conn_id", connID),
		zap.Int("remaining_devices", remaining))
	return nil
}
