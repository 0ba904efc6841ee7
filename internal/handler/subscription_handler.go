package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkbook/invitehub/internal/service"
	"linkbook/invitehub/pkg/response"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Provision starts the caller's trial.
func (h *SubscriptionHandler) Provision(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	sub, err := h.subscriptionService.Provision(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubscribed):
			response.Fail(c, http.StatusConflict, service.CodeAlreadySubscribed, err.Error())
		case errors.Is(err, service.ErrMissingFields):
			response.Fail(c, http.StatusBadRequest, service.CodeMissingFields, err.Error())
		default:
			response.InternalError(c, "failed to provision subscription")
		}
		return
	}

	response.Success(c, sub)
}

func (h *SubscriptionHandler) Me(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	sub, err := h.subscriptionService.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrSubscriptionNotFound) {
			response.Fail(c, http.StatusNotFound, service.CodeSubscriptionNotFound, err.Error())
			return
		}
		response.InternalError(c, "failed to load subscription")
		return
	}

	response.Success(c, sub)
}
