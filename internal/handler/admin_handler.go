package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"linkbook/invitehub/internal/service"
	"linkbook/invitehub/pkg/response"
)

type AdminHandler struct {
	inviteService service.InviteService
}

func NewAdminHandler(inviteService service.InviteService) *AdminHandler {
	return &AdminHandler{inviteService: inviteService}
}

// ListInviteCodes returns every ledger entry, optionally filtered by ?used=true|false.
func (h *AdminHandler) ListInviteCodes(c *gin.Context) {
	var filter service.InviteCodeFilter
	if raw := c.Query("used"); raw != "" {
		used, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "invalid used filter: "+raw)
			return
		}
		filter.Used = &used
	}

	codes, err := h.inviteService.ListInviteCodes(c.Request.Context(), filter)
	if err != nil {
		response.InternalError(c, "failed to list invite codes")
		return
	}

	response.Success(c, codes)
}

// RebuildIndex re-reserves every ledger code in the code index.
func (h *AdminHandler) RebuildIndex(c *gin.Context) {
	report, err := h.inviteService.RebuildIndex(c.Request.Context())
	if err != nil {
		response.InternalError(c, "failed to rebuild code index")
		return
	}

	response.Success(c, report)
}
