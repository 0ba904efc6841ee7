package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"linkbook/invitehub/internal/service"
)

const (
	actionValidate = "validate"
	actionRedeem   = "redeem"
)

// InviteHandler serves the /invite endpoint. Unlike the /api/v1 routes it
// answers with flat JSON bodies rather than the response envelope.
type InviteHandler struct {
	inviteService service.InviteService
}

func NewInviteHandler(inviteService service.InviteService) *InviteHandler {
	return &InviteHandler{inviteService: inviteService}
}

type ValidateRequest struct {
	Code string `json:"code"`
}

type RedeemRequest struct {
	Code       string `json:"code"`
	NewUserUID string `json:"newUserUid"`
}

// Handle dispatches on the action query parameter.
func (h *InviteHandler) Handle(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error": "Method not allowed",
			"code":  service.CodeMethodNotAllowed,
		})
		return
	}

	switch c.Query("action") {
	case actionValidate:
		h.validate(c)
	case actionRedeem:
		h.redeem(c)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid action",
			"code":  service.CodeUnknownAction,
		})
	}
}

func (h *InviteHandler) validate(c *gin.Context) {
	var req ValidateRequest
	// A body that does not decode is treated as one with no fields.
	_ = c.ShouldBindJSON(&req)

	res, err := h.inviteService.Validate(c.Request.Context(), req.Code)
	if err != nil {
		if service.IsBusinessError(err) {
			c.JSON(http.StatusBadRequest, gin.H{
				"valid": false,
				"error": err.Error(),
				"code":  service.ErrorCode(err),
			})
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"inviterUid": res.InviterUID,
	})
}

func (h *InviteHandler) redeem(c *gin.Context) {
	var req RedeemRequest
	_ = c.ShouldBindJSON(&req)

	res, err := h.inviteService.Redeem(c.Request.Context(), req.Code, req.NewUserUID)
	if err != nil {
		if service.IsBusinessError(err) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   err.Error(),
				"code":    service.ErrorCode(err),
			})
			return
		}
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Invite code redeemed successfully",
		"trialEndDate":    res.TrialEndDate.UTC().Format(time.RFC3339Nano),
		"inviterExtended": res.InviterExtended,
	})
}

func internalError(c *gin.Context, err error) {
	code := service.ErrorCode(err)
	msg := "internal server error"
	if code == service.CodeStoreError {
		msg = service.ErrStore.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": msg,
		"code":  code,
	})
}
