package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/vessel-charter/internal/interface/http/response"
	"github.com/ignatzorin/vessel-charter/internal/logger"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

// ErrorHandler логирует ошибки, добавленные хэндлерами через c.Error,
// и отвечает конвертом, если ответ ещё не записан. Внутренние причины наружу не попадают.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		fields := logrus.Fields{
			"error":  err.Error(),
			"code":   string(apperror.CodeOf(err)),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}

		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
			logger.L().WithFields(fields).Debug("request rejected")
		} else {
			logger.L().WithFields(fields).Error("request error")
		}

		if !c.Writer.Written() {
			response.Error(c, err)
		}
	}
}

// Recovery превращает panic в INTERNAL_ERROR и пишет стек в лог.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.L().WithFields(logrus.Fields{
					"panic":  r,
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"stack":  string(debug.Stack()),
				}).Error("panic recovered")
				if !c.Writer.Written() {
					response.Error(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
