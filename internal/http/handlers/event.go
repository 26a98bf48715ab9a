package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rollup-backend/internal/data/repos"
	"github.com/yungbote/rollup-backend/internal/http/response"
	"github.com/yungbote/rollup-backend/internal/platform/ctxutil"
	"github.com/yungbote/rollup-backend/internal/platform/dbctx"
	"github.com/yungbote/rollup-backend/internal/platform/errs"
	"github.com/yungbote/rollup-backend/internal/rollup"
	"github.com/yungbote/rollup-backend/internal/rollup/categories"
)

// maxEventsPerRequest bounds one ingest call.
const maxEventsPerRequest = 5000

type EventHandler struct {
	registry *categories.Registry
	events   repos.TrackedEventRepo
}

func NewEventHandler(registry *categories.Registry, events repos.TrackedEventRepo) *EventHandler {
	return &EventHandler{registry: registry, events: events}
}

type ingestRequest struct {
	Events []rollup.Event `json:"events"`
}

// POST /api/events/:category
func (h *EventHandler) Ingest(c *gin.Context) {
	cat, err := h.registry.Get(c.Param("category"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, fmt.Errorf("invalid body: %v: %w", err, errs.ErrInvalidArgument))
		return
	}
	if len(req.Events) > maxEventsPerRequest {
		response.RespondAPIError(c, fmt.Errorf("at most %d events per request: %w", maxEventsPerRequest, errs.ErrInvalidArgument))
		return
	}
	source := ""
	if ad := ctxutil.GetAuthData(c.Request.Context()); ad != nil {
		source = ad.Subject
	}
	n, err := h.events.Insert(dbctx.Context{Ctx: c.Request.Context()}, cat.Name, source, req.Events)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"category": cat.Name, "inserted": n})
}
