package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/http/middleware"
	"github.com/ignatzorin/vessel-charter/internal/interface/http/response"
)

// getActor возвращает участника запроса или отвечает 401.
func getActor(c *gin.Context) (entity.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return entity.Actor{}, false
	}
	return actor, true
}

// paramUUID разбирает path-параметр; UUIDValidator на маршруте уже проверил формат.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.ValidationError(c, "параметр "+name+" должен быть валидным UUID")
		return uuid.Nil, false
	}
	return id, true
}

// fail регистрирует ошибку для ErrorHandler (логирование) и отвечает конвертом.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	response.Error(c, err)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ValidationError(c, "некорректные данные запроса")
		return false
	}
	return true
}
