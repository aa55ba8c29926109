package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"dinein/internal/access"
	"dinein/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Action клиентская команда подписки
type Action struct {
	Action string `json:"action"`
	ID     any    `json:"id,omitempty"`
}

// Channel resolves join-*/leave-* actions to a channel name. Order
// channels take the order number, the others a numeric id.
func (a Action) Channel() (join bool, channel string, err error) {
	verb, family, ok := strings.Cut(a.Action, "-")
	if !ok || (verb != "join" && verb != "leave") {
		return false, "", fmt.Errorf("unknown action %q", a.Action)
	}
	join = verb == "join"
	switch family {
	case "superadmin":
		return join, SuperadminChannel(), nil
	case "order":
		number, _ := a.ID.(string)
		number = strings.TrimSpace(number)
		if !domain.ValidOrderNumber(number) {
			return false, "", fmt.Errorf("invalid order number %v", a.ID)
		}
		return join, OrderChannel(number), nil
	case "restaurant", "admin":
	default:
		return false, "", fmt.Errorf("unknown action %q", a.Action)
	}
	id, err := parseID(a.ID)
	if err != nil {
		return false, "", err
	}
	if family == "restaurant" {
		return join, RestaurantChannel(id), nil
	}
	return join, AdminChannel(id), nil
}

func parseID(v any) (int64, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return 0, fmt.Errorf("id is required")
	default:
		s = fmt.Sprint(x)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// Authenticator turns a bearer token into a principal.
type Authenticator interface {
	Parse(raw string) (access.Principal, error)
}

// Authorizer is the per-restaurant tab check.
type Authorizer interface {
	Authorize(ctx context.Context, p access.Principal, restaurantID int64, caps ...domain.Capability) error
}

var (
	errAuthRequired = errors.New("authentication required")
	errForbidden    = errors.New("forbidden")
)

// WSOptions. Without Tokens every privileged join is refused.
type WSOptions struct {
	Tokens         Authenticator
	Gate           Authorizer
	Logger         *slog.Logger
	AllowedOrigins []string // empty or "*" accepts any origin
}

// WSHandler real-time transport поверх gorilla/websocket
type WSHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	tokens   Authenticator
	gate     Authorizer
	logger   *slog.Logger
}

func NewWSHandler(hub *Hub, opts WSOptions) *WSHandler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		hub:    hub,
		tokens: opts.Tokens,
		gate:   opts.Gate,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// bearerToken: browsers cannot set headers on a websocket handshake, so
// the token may also come as ?token=.
func bearerToken(r *http.Request) string {
	if raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var principal *access.Principal
	if raw := bearerToken(r); raw != "" {
		if h.tokens == nil {
			http.Error(w, "token authentication is not configured", http.StatusUnauthorized)
			return
		}
		p, err := h.tokens.Parse(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		principal = &p
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("realtime: upgrade failed", "error", err)
		return
	}
	client := h.hub.Register()
	h.logger.Debug("realtime: client connected", "client", client.ID(), "remote", r.RemoteAddr, "authenticated", principal != nil)

	go h.writePump(conn, client)
	h.readPump(r.Context(), conn, client, principal)
}

func (h *WSHandler) readPump(ctx context.Context, conn *websocket.Conn, client *Client, principal *access.Principal) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close()
		h.logger.Debug("realtime: client disconnected", "client", client.ID())
	}()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var a Action
		if err := conn.ReadJSON(&a); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("realtime: read failed", "client", client.ID(), "error", err)
			}
			if !isDecodeError(err) {
				return
			}
			h.hub.deliver(client, Event{Type: "error", Payload: "malformed message", At: time.Now().UTC()})
			continue
		}
		h.handleAction(ctx, client, principal, a)
	}
}

// isDecodeError: the frame arrived but was not a valid action; the
// connection itself is still usable. An empty text frame surfaces as
// io.ErrUnexpectedEOF.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (h *WSHandler) handleAction(ctx context.Context, client *Client, principal *access.Principal, a Action) {
	join, channel, err := a.Channel()
	if err != nil {
		h.hub.deliver(client, Event{Type: "error", Payload: err.Error(), At: time.Now().UTC()})
		return
	}
	if !join {
		h.hub.Leave(client, channel)
		h.hub.deliver(client, Event{Channel: channel, Type: "left", At: time.Now().UTC()})
		return
	}
	if err := h.mayJoin(ctx, principal, channel); err != nil {
		h.logger.Info("realtime: join refused", "client", client.ID(), "channel", channel, "error", err)
		h.hub.deliver(client, Event{Channel: channel, Type: "error", Payload: err.Error(), At: time.Now().UTC()})
		return
	}
	if err := h.hub.Join(client, channel); err != nil {
		h.hub.deliver(client, Event{Channel: channel, Type: "error", Payload: err.Error(), At: time.Now().UTC()})
		return
	}
	h.hub.deliver(client, Event{Channel: channel, Type: "joined", At: time.Now().UTC()})
}

// mayJoin: order channels are open to whoever knows the order number;
// restaurant channels need orders access to that restaurant; admin and
// superadmin channels need the matching role and scope.
func (h *WSHandler) mayJoin(ctx context.Context, p *access.Principal, channel string) error {
	family, ref, _ := strings.Cut(channel, ":")
	if family == "order" {
		return nil
	}
	if p == nil {
		return errAuthRequired
	}
	if channel == superadminChannel {
		if p.Role != domain.RoleSuperadmin {
			return errForbidden
		}
		return nil
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return ErrUnknownChannel
	}
	switch family {
	case "admin":
		if p.Role != domain.RoleAdmin || p.RestaurantID != id {
			return errForbidden
		}
		return nil
	case "restaurant":
		if h.gate == nil {
			if p.RestaurantID != id {
				return errForbidden
			}
			return nil
		}
		if err := h.gate.Authorize(ctx, *p, id, domain.CapOrders); err != nil {
			if errors.Is(err, access.ErrForbidden) {
				return errForbidden
			}
			return err
		}
		return nil
	}
	return ErrUnknownChannel
}

func (h *WSHandler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case ev, ok := <-client.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
