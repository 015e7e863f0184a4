package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	Token string `json:"token" binding:"required"`
}

type signInResponse struct {
	Identity string `json:"identity"`
}

func (h *handlerImpl) HandleSignIn(c *gin.Context) {
	var req signInRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	identity, err := h.sessions.SignIn(c, req.Token)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to sign in")
		abort(c, newUnauthorizedError(errInvalidToken.Error()))
		return
	}

	c.JSON(http.StatusOK, signInResponse{Identity: identity})
}

func (h *handlerImpl) HandleSignOut(c *gin.Context) {
	h.sessions.SignOut(c)
	c.Status(http.StatusNoContent)
}
