package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wavechat/internal/domain"
	"wavechat/internal/metrics"
	"wavechat/internal/service"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	if len(allowed) == 0 {
		return func(r *http.Request) bool {
			return false
		}
	}

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return false
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// extractHandshake reads the two tokens from the upgrade request: access
// token from the Authorization header or `access_token` query parameter,
// refresh token from the `refresh_token` cookie or query parameter.
func extractHandshake(r *http.Request) service.HandshakeInput {
	var in service.HandshakeInput

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		in.AccessToken = strings.TrimSpace(authHeader[len("Bearer "):])
	}
	if in.AccessToken == "" {
		in.AccessToken = r.URL.Query().Get("access_token")
	}

	if cookie, err := r.Cookie("refresh_token"); err == nil {
		in.RefreshToken = cookie.Value
	}
	if in.RefreshToken == "" {
		in.RefreshToken = r.URL.Query().Get("refresh_token")
	}

	return in
}

// handshakeReason maps an authentication error to the named reason emitted to
// the client. Infrastructure errors collapse to a generic reason.
func handshakeReason(err error) string {
	for _, known := range []error{
		service.ErrMissingAccessToken,
		service.ErrAccessTokenInvalid,
		service.ErrUnknownAccount,
		service.ErrMissingRefreshToken,
		service.ErrRefreshTokenInvalid,
		service.ErrAccountSuspended,
		service.ErrAccountDeactivated,
		service.ErrAccountPending,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "authentication failed"
}

// ackableErrors are domain-rule violations whose message is safe to return to
// the caller. Everything else is logged and surfaced as a generic failure.
var ackableErrors = []error{
	domain.ErrNotParticipant,
	domain.ErrInvalidInput,
	service.ErrEmptyContent,
	service.ErrContentTooLong,
	service.ErrConversationNotFound,
	service.ErrMessageNotFound,
	service.ErrMessageDeleted,
	service.ErrReplyNotFound,
	service.ErrNotMessageSender,
	service.ErrDuplicateReaction,
	service.ErrEmojiRequired,
}

type gateway struct {
	hub      *Hub
	life     *service.Lifecycle
	rooms    *service.RoomService
	messages *service.MessageService
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// MakeHandler returns the HTTP handler for the /ws endpoint. The dual-token
// handshake runs once after the upgrade; on failure an auth.error event is
// emitted and the connection is force-closed. On success the connection
// dispatches events until it drops:
//
//	conversation.join/leave     -> room membership (join acks a presence snapshot)
//	message.send                -> transactional create + fan-out, broadcast message.sent
//	message.deliver / read      -> status escalation, broadcast
//	message.react(.delete)      -> reaction add/remove, broadcast
//	message.edit                -> sender-only edit, broadcast
//	message.delete.for.me/.all  -> visibility suppression / soft delete
//	typing.start / stop         -> ephemeral broadcast, no persistence
func MakeHandler(
	hub *Hub,
	life *service.Lifecycle,
	rooms *service.RoomService,
	messages *service.MessageService,
	m *metrics.Metrics,
	log *zap.Logger,
	allowedOrigins []string,
) http.HandlerFunc {
	g := &gateway{
		hub:      hub,
		life:     life,
		rooms:    rooms,
		messages: messages,
		metrics:  m,
		log:      log,
	}
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		handshake := extractHandshake(r)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx := r.Context()
		connID := uuid.NewString()

		account, err := g.life.Connect(ctx, handshake, connID)
		if err != nil {
			reason := handshakeReason(err)
			if reason == "authentication failed" {
				g.log.Error("handshake_error", zap.Error(err), zap.String("conn_id", connID))
			}
			g.metrics.HandshakeFailures.WithLabelValues(reason).Inc()
			g.rejectHandshake(conn, reason)
			return
		}

		client := newClient(g.hub, conn, account, connID, g.log)
		g.hub.Register(client)
		g.metrics.ActiveConnections.Inc()
		go client.writePump()

		defer func() {
			g.hub.Unregister(client)
			close(client.send)
			g.metrics.ActiveConnections.Dec()
			if err := g.life.Disconnect(context.Background(), account.ID, connID); err != nil {
				g.log.Error("disconnect_failed",
					zap.Int64("account_id", account.ID),
					zap.String("conn_id", connID),
					zap.Error(err))
			}
		}()

		g.readLoop(ctx, client)
	}
}

// rejectHandshake tells the client why authentication failed and closes the
// connection. Leaving an unauthenticated connection open would give every
// handler an identity-absent edge case.
func (g *gateway) rejectHandshake(conn *websocket.Conn, reason string) {
	frame, err := json.Marshal(Push{Event: EvtAuthError, Error: reason})
	if err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, frame)
	}
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
}

// readLoop processes the client's events to completion in arrival order; a
// handler may block on I/O while other connections proceed independently.
func (g *gateway) readLoop(ctx context.Context, c *Client) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendJSON(Ack{Event: EvtAck, Success: false, Error: "malformed frame"})
			continue
		}
		g.dispatch(ctx, c, env)
	}
}

func (g *gateway) dispatch(ctx context.Context, c *Client, env Envelope) {
	var err error
	switch env.Event {
	case EvtConversationJoin:
		err = g.handleJoin(ctx, c, env)
	case EvtConversationLeave:
		err = g.handleLeave(ctx, c, env)
	case EvtMessageSend:
		err = g.handleSend(ctx, c, env)
	case EvtMessageDeliver:
		err = g.handleEscalate(ctx, c, env, domain.StatusDelivered, EvtMessageDelivered)
	case EvtMessageRead:
		err = g.handleEscalate(ctx, c, env, domain.StatusRead, EvtMessageRead)
	case EvtMessageReact:
		err = g.handleReact(ctx, c, env)
	case EvtMessageReactDelete:
		err = g.handleReactDelete(ctx, c, env)
	case EvtMessageEdit:
		err = g.handleEdit(ctx, c, env)
	case EvtMessageDeleteForMe:
		err = g.handleDeleteForMe(ctx, c, env)
	case EvtMessageDeleteForAll:
		err = g.handleDeleteForAll(ctx, c, env)
	case EvtTypingStart, EvtTypingStop:
		err = g.handleTyping(ctx, c, env)
	default:
		g.log.Warn("unknown_event",
			zap.String("event", env.Event),
			zap.Int64("account_id", c.account.ID))
		c.sendJSON(Ack{Event: EvtAck, ID: env.ID, Success: false, Error: "unknown event"})
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		g.fail(c, env, err)
	}
	g.metrics.EventsHandled.WithLabelValues(env.Event, outcome).Inc()
}

// fail converts any handler error into an ack failure. Domain-rule
// violations keep their message; infrastructure errors are logged with full
// detail and collapsed to a generic message. Nothing propagates as a fatal
// connection error.
func (g *gateway) fail(c *Client, env Envelope, err error) {
	msg := "something went wrong"
	known := false
	for _, ackable := range ackableErrors {
		if errors.Is(err, ackable) {
			msg = ackable.Error()
			known = true
			break
		}
	}
	if !known {
		g.log.Error("event_failed",
			zap.String("event", env.Event),
			zap.Int64("account_id", c.account.ID),
			zap.String("conn_id", c.connID),
			zap.Error(err))
	}
	c.sendJSON(Ack{Event: EvtAck, ID: env.ID, Success: false, Error: msg})
}

func (g *gateway) ack(c *Client, env Envelope, data any) {
	c.sendJSON(Ack{Event: EvtAck, ID: env.ID, Success: true, Data: data})
}

func (g *gateway) broadcast(conversationID int64, except *Client, event string, data any) {
	g.hub.BroadcastToRoom(conversationID, except, Push{Event: event, Data: data})
	g.metrics.RoomBroadcasts.Inc()
}

func (g *gateway) handleJoin(ctx context.Context, c *Client, env Envelope) error {
	var p conversationPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 {
		return domain.ErrInvalidInput
	}
	if err := g.rooms.Authorize(ctx, p.ConversationID, c.account.ID); err != nil {
		return err
	}
	g.hub.Join(p.ConversationID, c)

	statuses, err := g.rooms.Snapshot(ctx, p.ConversationID, c.account.ID)
	if err != nil {
		return err
	}
	g.ack(c, env, map[string]any{"statuses": statuses})
	return nil
}

func (g *gateway) handleLeave(_ context.Context, c *Client, env Envelope) error {
	var p conversationPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 {
		return domain.ErrInvalidInput
	}
	g.hub.Leave(p.ConversationID, c)
	g.ack(c, env, nil)
	return nil
}

func (g *gateway) handleSend(ctx context.Context, c *Client, env Envelope) error {
	var p sendPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 {
		return domain.ErrInvalidInput
	}
	msg, err := g.messages.Send(ctx, c.account.ID, service.SendInput{
		ConversationID:   p.ConversationID,
		Content:          p.Content,
		ContentType:      p.Type,
		Metadata:         p.Metadata,
		ReplyToMessageID: p.ReplyToMessageID,
		IsForwarded:      p.IsForwarded,
	})
	if err != nil {
		return err
	}
	g.metrics.MessagesSent.Inc()

	resp := g.messages.ToResponse(msg)
	resp.TempID = p.TempID
	g.broadcast(p.ConversationID, c, EvtMessageSent, resp)
	g.ack(c, env, resp)
	return nil
}

func (g *gateway) handleEscalate(ctx context.Context, c *Client, env Envelope, status domain.DeliveryStatus, event string) error {
	var p messageRefPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 || p.MessageID == 0 {
		return domain.ErrInvalidInput
	}
	upd, err := g.messages.Escalate(ctx, c.account.ID, p.ConversationID, p.MessageID, status)
	if err != nil {
		return err
	}
	g.broadcast(p.ConversationID, c, event, upd)
	g.ack(c, env, upd)
	return nil
}

func (g *gateway) handleReact(ctx context.Context, c *Client, env Envelope) error {
	var p reactPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 || p.MessageID == 0 {
		return domain.ErrInvalidInput
	}
	ev, err := g.messages.React(ctx, c.account.ID, p.ConversationID, p.MessageID, p.Emoji)
	if err != nil {
		return err
	}
	g.broadcast(p.ConversationID, c, EvtMessageReacted, ev)
	g.ack(c, env, ev)
	return nil
}

func (g *gateway) handleReactDelete(ctx context.Context, c *Client, env Envelope) error {
	var p reactPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 || p.MessageID == 0 {
		return domain.ErrInvalidInput
	}
	ev, err := g.messages.DeleteReaction(ctx, c.account.ID, p.ConversationID, p.MessageID, p.Emoji)
	if err != nil {
		return err
	}
	g.broadcast(p.ConversationID, c, EvtMessageReactDltd, ev)
	g.ack(c, env, nil)
	return nil
}

func (g *gateway) handleEdit(ctx context.Context, c *Client, env Envelope) error {
	var p editPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 || p.MessageID == 0 {
		return domain.ErrInvalidInput
	}
	msg, err := g.messages.Edit(ctx, c.account.ID, p.ConversationID, p.MessageID, p.Content)
	if err != nil {
		return err
	}
	resp := g.messages.ToResponse(msg)
	g.broadcast(p.ConversationID, c, EvtMessageEdited, resp)
	g.ack(c, env, resp)
	return nil
}

func (g *gateway) handleDeleteForMe(ctx context.Context, c *Client, env Envelope) error {
	var p messageRefPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 || p.MessageID == 0 {
		return domain.ErrInvalidInput
	}
	// Private mutation: the caller's view only, no broadcast.
	if err := g.messages.DeleteForMe(ctx, c.account.ID, p.ConversationID, p.MessageID); err != nil {
		return err
	}
	g.ack(c, env, nil)
	return nil
}

func (g *gateway) handleDeleteForAll(ctx context.Context, c *Client, env Envelope) error {
	var p messageRefPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 || p.MessageID == 0 {
		return domain.ErrInvalidInput
	}
	if _, err := g.messages.DeleteForEveryone(ctx, c.account.ID, p.ConversationID, p.MessageID); err != nil {
		return err
	}
	g.broadcast(p.ConversationID, c, EvtMessageDeletedAll, messageRefPayload{
		ConversationID: p.ConversationID,
		MessageID:      p.MessageID,
	})
	g.ack(c, env, nil)
	return nil
}

// handleTyping is fire-and-forget: a membership check, then a pure broadcast
// with no persistence and no success ack.
func (g *gateway) handleTyping(ctx context.Context, c *Client, env Envelope) error {
	var p conversationPayload
	if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == 0 {
		return domain.ErrInvalidInput
	}
	if err := g.rooms.Authorize(ctx, p.ConversationID, c.account.ID); err != nil {
		return err
	}
	g.broadcast(p.ConversationID, c, env.Event, typingEvent{
		AccountID:      c.account.ID,
		ConversationID: p.ConversationID,
	})
	return nil
}
