package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-sync/internal/services"
)

const identityCtxKey = "identity"

func (h *handlerImpl) HandleIdentityMiddleware(c *gin.Context) {
	identity := h.sync.Identity()
	if identity == "" {
		h.logger.Warn().
			Str("path", c.FullPath()).
			Msg("no active identity")
		abort(c, newUnauthorizedError(services.ErrNoIdentity.Error()))
		return
	}

	c.Set(identityCtxKey, identity)
	c.Next()
}
