package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/infrastructure/payment"
	"github.com/ignatzorin/vessel-charter/internal/interface/http/response"
	"github.com/ignatzorin/vessel-charter/internal/logger"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
	"github.com/ignatzorin/vessel-charter/internal/usecase/escrow"
)

const maxWebhookBody = 1 << 20

// WebhookParser проверяет подпись провайдера и переводит тело в событие escrow.
type WebhookParser interface {
	Parse(provider valueobject.PaymentProvider, header http.Header, body []byte) (escrow.ProviderEvent, error)
}

type WebhookHandler struct {
	parser    WebhookParser
	processUC *escrow.ProcessProviderEventUseCase
}

func NewWebhookHandler(parser WebhookParser, processUC *escrow.ProcessProviderEventUseCase) *WebhookHandler {
	return &WebhookHandler{parser: parser, processUC: processUC}
}

// Handle обслуживает POST /api/webhooks/:provider. JWT не требуется, подпись проверяет парсер.
// Событие, не относящееся к escrow, и неизвестная ссылка подтверждаются 200, чтобы провайдер не повторял доставку.
func (h *WebhookHandler) Handle(c *gin.Context) {
	provider, err := valueobject.NewPaymentProvider(strings.ToUpper(c.Param("provider")))
	if err != nil {
		fail(c, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.ValidationError(c, "не удалось прочитать тело запроса")
		return
	}

	event, err := h.parser.Parse(provider, c.Request.Header, body)
	if errors.Is(err, payment.ErrIgnoredEvent) {
		response.Success(c, gin.H{"processed": false})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	tx, err := h.processUC.Execute(c.Request.Context(), event)
	if apperror.IsNotFound(err) {
		logger.L().WithFields(logrus.Fields{
			"provider":  string(provider),
			"reference": event.Reference,
		}).Warn("вебхук для неизвестной escrow-транзакции")
		response.Success(c, gin.H{"processed": false})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, gin.H{
		"processed": true,
		"escrow_id": tx.ID,
		"status":    string(tx.Status),
	})
}
