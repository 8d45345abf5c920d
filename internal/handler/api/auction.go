package api

import (
	"context"
	"errors"
	"net/http"

	"quickbid/internal/domain/actor"
	"quickbid/internal/domain/auction"
	reqdto "quickbid/internal/handler/dto/request"
	resdto "quickbid/internal/handler/dto/response"
	"quickbid/internal/handler/httperr"
	"quickbid/internal/handler/middleware"
	"quickbid/internal/usecase/commands"
	"quickbid/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuctionHandler struct {
	cmds commands.ControlCommands
	q    queries.AuctionQueries
}

func NewAuctionHandler(cmds commands.ControlCommands, q queries.AuctionQueries) *AuctionHandler {
	return &AuctionHandler{cmds: cmds, q: q}
}

func (h *AuctionHandler) Create(c *gin.Context) {
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}
	var req reqdto.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	params, err := req.ToParams(a.ID)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid auction definition", nil)
		return
	}
	snap, err := h.cmds.CreateAuction(c.Request.Context(), params)
	if err != nil {
		abortCommandError(c, err, "Create auction failed")
		return
	}
	c.JSON(http.StatusCreated, resdto.FromSnapshot(snap))
}

func (h *AuctionHandler) Start(c *gin.Context) {
	h.lifecycle(c, h.cmds.StartAuction)
}

func (h *AuctionHandler) Pause(c *gin.Context) {
	h.lifecycle(c, h.cmds.PauseAuction)
}

func (h *AuctionHandler) Resume(c *gin.Context) {
	h.lifecycle(c, h.cmds.ResumeAuction)
}

func (h *AuctionHandler) End(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}

	// The body is optional: an empty end settles on the recorded high bid.
	var req reqdto.EndAuctionRequest
	if c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
			return
		}
	}
	winner, err := req.ToWinner()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid winner override", nil)
		return
	}

	snap, err := h.cmds.EndAuction(c.Request.Context(), commands.EndAuctionParams{
		AuctionID:      id,
		Actor:          a,
		WinnerOverride: winner,
	})
	if err != nil {
		abortCommandError(c, err, "End auction failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromSnapshot(snap))
}

func (h *AuctionHandler) UpdateSettings(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	var req reqdto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	kind, err := req.ToKind()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid settings", nil)
		return
	}
	snap, err := h.cmds.UpdateSettings(c.Request.Context(), id, kind)
	if err != nil {
		abortCommandError(c, err, "Update settings failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromSnapshot(snap))
}

func (h *AuctionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	snap, err := h.q.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queries.ErrAuctionNotFound) {
			httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
			return
		}
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load auction", nil)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSnapshot(snap))
}

func (h *AuctionHandler) List(c *gin.Context) {
	snaps := h.q.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"auctions": resdto.FromSnapshotList(snaps)})
}

func (h *AuctionHandler) lifecycle(
	c *gin.Context,
	cmd func(ctx context.Context, id uuid.UUID, by actor.Actor) (auction.Snapshot, error),
) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid id", nil)
		return
	}
	a, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Unauthorized", nil)
		return
	}
	snap, err := cmd(c.Request.Context(), id, a)
	if err != nil {
		abortCommandError(c, err, "Auction state change failed")
		return
	}
	c.JSON(http.StatusOK, resdto.FromSnapshot(snap))
}

func abortCommandError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, commands.ErrAuctionNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
	case errors.Is(err, commands.ErrInvalidTransition):
		httperr.AbortWithError(c, http.StatusConflict, err, msg, nil)
	case errors.Is(err, commands.ErrDomainValidation):
		httperr.AbortWithError(c, http.StatusBadRequest, err, msg, nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
	}
}
