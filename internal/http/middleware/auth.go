package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/interface/http/response"
)

// ContextActorKey: ключ gin.Context, под которым лежит entity.Actor.
const ContextActorKey = "actor"

// TokenParser превращает bearer-токен в участника.
type TokenParser interface {
	ParseAccess(token string) (entity.Actor, error)
}

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			c.Abort()
			return
		}

		actor, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "токен невалиден")
			c.Abort()
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// ActorFrom достаёт участника, положенного AuthMiddleware.
func ActorFrom(c *gin.Context) (entity.Actor, bool) {
	value, ok := c.Get(ContextActorKey)
	if !ok {
		return entity.Actor{}, false
	}
	actor, ok := value.(entity.Actor)
	return actor, ok
}
