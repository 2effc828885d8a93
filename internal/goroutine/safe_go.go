package goroutine

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/vessel-charter/internal/logger"
)

// RecoveryHandler запускает фоновые задачи и не даёт panic уронить процесс.
type RecoveryHandler struct {
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewRecoveryHandler(log logrus.FieldLogger, timeout time.Duration) *RecoveryHandler {
	return &RecoveryHandler{log: log, timeout: timeout}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go func() {
		defer rh.recover("")
		fn()
	}()
}

// SafeGoWithContext запускает задачу с собственным контекстом, ограниченным timeout.
// Контекст запроса сюда не передаётся: задача переживает ответ клиенту.
func (rh *RecoveryHandler) SafeGoWithContext(task string, fn func(context.Context)) {
	go func() {
		defer rh.recover(task)
		ctx := context.Background()
		if rh.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, rh.timeout)
			defer cancel()
		}
		fn(ctx)
	}()
}

func (rh *RecoveryHandler) recover(task string) {
	if r := recover(); r != nil {
		rh.log.WithFields(logrus.Fields{
			"task":  task,
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("panic в фоновой задаче")
	}
}

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(fn func()) {
	NewRecoveryHandler(logger.L(), 0).SafeGo(fn)
}
