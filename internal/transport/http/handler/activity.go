package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nicoceron/nimble-backend/internal/app"
	"github.com/nicoceron/nimble-backend/internal/transport/http/response"
)

type ActivityHandler struct {
	activityService *app.ActivityService
}

func NewActivityHandler(activityService *app.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) ListForUser(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid user id")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	activities, err := h.activityService.ListForUser(c.Request.Context(), userID, limit)
	if err != nil {
		writeServiceError(c, err, "list activity failed")
		return
	}
	response.OK(c, activities)
}
