// Package ws is the websocket endpoint: it upgrades authenticated viewers,
// parses inbound frames and routes them into the command layer. All outbound
// traffic flows through the realtime hub.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"quickbid/internal/domain/auction"
	"quickbid/internal/handler/httperr"
	"quickbid/internal/handler/middleware"
	"quickbid/internal/pkg/config"
	"quickbid/internal/realtime"
	"quickbid/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	actionJoinAuction  = "joinAuction"
	actionLeaveAuction = "leaveAuction"
	actionPlaceBid     = "placeBid"
)

type inboundMessage struct {
	Action    string    `json:"action"`
	AuctionID uuid.UUID `json:"auctionId"`
	Amount    string    `json:"amount,omitempty"`
}

type Handler struct {
	hub      *realtime.Hub
	bids     commands.BidCommands
	presence commands.PresenceCommands
	cfg      config.WSConfig
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(
	hub *realtime.Hub,
	bids commands.BidCommands,
	presence commands.PresenceCommands,
	cfg config.WSConfig,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		hub:      hub,
		bids:     bids,
		presence: presence,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware on the
			// rest of the API; the upgrade itself accepts any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Serve upgrades the connection and blocks until the peer disconnects.
func (h *Handler) Serve(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err, "user_id", a.ID)
		return
	}

	client := realtime.NewClient(conn, a, h.cfg, h.log)
	h.hub.Register(client)
	h.log.Info("websocket connected", "conn_id", client.ID(), "user_id", a.ID)
	client.Run(h)
}

func (h *Handler) HandleMessage(c *realtime.Client, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.log.Debug("discarding malformed frame", "conn_id", c.ID(), "error", err)
		return
	}
	if msg.AuctionID == uuid.Nil {
		return
	}

	ctx := context.Background()
	switch msg.Action {
	case actionJoinAuction:
		// Membership first so the presence count the room hears includes the
		// joiner.
		h.hub.Join(msg.AuctionID, c)
		if err := h.presence.JoinAuction(ctx, msg.AuctionID, c.Actor(), c.ID()); err != nil {
			h.hub.Leave(msg.AuctionID, c.ID())
			h.log.Warn("join auction failed", "conn_id", c.ID(), "auction_id", msg.AuctionID, "error", err)
		}
	case actionLeaveAuction:
		h.hub.Leave(msg.AuctionID, c.ID())
		if err := h.presence.LeaveAuction(ctx, msg.AuctionID, c.Actor()); err != nil {
			h.log.Warn("leave auction failed", "conn_id", c.ID(), "auction_id", msg.AuctionID, "error", err)
		}
	case actionPlaceBid:
		h.placeBid(ctx, c, msg)
	default:
		h.log.Debug("unknown action", "conn_id", c.ID(), "action", msg.Action)
	}
}

func (h *Handler) placeBid(ctx context.Context, c *realtime.Client, msg inboundMessage) {
	amount, err := auction.MoneyFromString(msg.Amount)
	if err != nil {
		h.rejectFrame(c, msg.AuctionID, amount)
		return
	}

	a := c.Actor()
	_, err = h.bids.PlaceBid(ctx, commands.PlaceBidParams{
		AuctionID: msg.AuctionID,
		UserID:    a.ID,
		UserName:  a.Name,
		Amount:    amount,
		ConnID:    c.ID(),
	})
	if err != nil {
		if !errors.Is(err, commands.ErrAuctionNotFound) {
			h.log.Error("place bid failed", "conn_id", c.ID(), "auction_id", msg.AuctionID, "error", err)
		}
		h.hub.Unicast(c.ID(), realtime.TypeBidError, msg.AuctionID, realtime.BidRejectedPayload{
			AuctionID: msg.AuctionID,
			Reason:    auction.ReasonInternalError,
			Amount:    amount,
		})
	}
}

func (h *Handler) rejectFrame(c *realtime.Client, auctionID uuid.UUID, amount auction.Money) {
	h.hub.Unicast(c.ID(), realtime.TypeBidRejected, auctionID, realtime.BidRejectedPayload{
		AuctionID: auctionID,
		Reason:    auction.ReasonBidTooLow,
		Amount:    amount,
	})
}

// HandleDisconnect tears down hub membership and lets each watched auction
// know the viewer left.
func (h *Handler) HandleDisconnect(c *realtime.Client) {
	rooms := h.hub.Unregister(c.ID())
	ctx := context.Background()
	for _, auctionID := range rooms {
		if err := h.presence.LeaveAuction(ctx, auctionID, c.Actor()); err != nil {
			h.log.Warn("leave on disconnect failed", "conn_id", c.ID(), "auction_id", auctionID, "error", err)
		}
	}
	h.log.Info("websocket disconnected", "conn_id", c.ID())
}
