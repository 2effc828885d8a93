package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
	"github.com/ignatzorin/vessel-charter/internal/usecase/escrow"
)

const (
	PaystackSignatureHeader    = "x-paystack-signature"
	FlutterwaveSignatureHeader = "verif-hash"
)

// ErrIgnoredEvent: событие валидно, но не влияет на escrow (провайдеру отвечаем 200).
var ErrIgnoredEvent = errors.New("payment: событие не относится к escrow")

const paystackSchema = `{
  "type": "object",
  "required": ["event", "data"],
  "properties": {
    "event": {"type": "string", "minLength": 1},
    "data": {
      "type": "object",
      "required": ["reference"],
      "properties": {
        "reference": {"type": "string", "minLength": 1},
        "id": {"type": ["integer", "string"]},
        "status": {"type": "string"}
      }
    }
  }
}`

const flutterwaveSchema = `{
  "type": "object",
  "required": ["event", "data"],
  "properties": {
    "event": {"type": "string", "minLength": 1},
    "data": {
      "type": "object",
      "required": ["tx_ref", "status"],
      "properties": {
        "tx_ref": {"type": "string", "minLength": 1},
        "flw_ref": {"type": "string"},
        "id": {"type": ["integer", "string"]},
        "status": {"type": "string"}
      }
    }
  }
}`

// WebhookParser проверяет подпись и тело уведомления и приводит его к escrow.ProviderEvent.
type WebhookParser struct {
	paystackSecret  []byte
	flutterwaveHash []byte
	schemas         map[valueobject.PaymentProvider]*jsonschema.Schema
}

func NewWebhookParser(paystackSecret, flutterwaveHash string) (*WebhookParser, error) {
	paystack, err := jsonschema.CompileString("paystack.schema.json", paystackSchema)
	if err != nil {
		return nil, fmt.Errorf("payment: схема paystack: %w", err)
	}
	flutterwave, err := jsonschema.CompileString("flutterwave.schema.json", flutterwaveSchema)
	if err != nil {
		return nil, fmt.Errorf("payment: схема flutterwave: %w", err)
	}
	return &WebhookParser{
		paystackSecret:  []byte(paystackSecret),
		flutterwaveHash: []byte(flutterwaveHash),
		schemas: map[valueobject.PaymentProvider]*jsonschema.Schema{
			valueobject.ProviderPaystack:    paystack,
			valueobject.ProviderFlutterwave: flutterwave,
		},
	}, nil
}

// Parse: неверная подпись даёт ErrUnauthorized, невалидное тело ValidationError,
// неинтересное событие ErrIgnoredEvent.
func (p *WebhookParser) Parse(provider valueobject.PaymentProvider, header http.Header, body []byte) (escrow.ProviderEvent, error) {
	if err := p.verify(provider, header, body); err != nil {
		return escrow.ProviderEvent{}, err
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return escrow.ProviderEvent{}, apperror.Wrap(err, apperror.ErrCodeValidation, "тело вебхука не является JSON")
	}
	if err := p.schemas[provider].Validate(doc); err != nil {
		return escrow.ProviderEvent{}, apperror.Wrap(err, apperror.ErrCodeValidation, "тело вебхука не соответствует схеме")
	}

	switch provider {
	case valueobject.ProviderPaystack:
		return parsePaystack(body)
	case valueobject.ProviderFlutterwave:
		return parseFlutterwave(body)
	}
	return escrow.ProviderEvent{}, apperror.New(apperror.ErrCodeValidation, "неподдерживаемый провайдер")
}

func (p *WebhookParser) verify(provider valueobject.PaymentProvider, header http.Header, body []byte) error {
	switch provider {
	case valueobject.ProviderPaystack:
		if len(p.paystackSecret) == 0 {
			return apperror.New(apperror.ErrCodeUnauthorized, "секрет paystack не настроен")
		}
		mac := hmac.New(sha512.New, p.paystackSecret)
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))
		got := strings.ToLower(strings.TrimSpace(header.Get(PaystackSignatureHeader)))
		if !hmac.Equal([]byte(expected), []byte(got)) {
			return apperror.New(apperror.ErrCodeUnauthorized, "неверная подпись вебхука")
		}
		return nil
	case valueobject.ProviderFlutterwave:
		if len(p.flutterwaveHash) == 0 {
			return apperror.New(apperror.ErrCodeUnauthorized, "секрет flutterwave не настроен")
		}
		got := []byte(header.Get(FlutterwaveSignatureHeader))
		if subtle.ConstantTimeCompare(p.flutterwaveHash, got) != 1 {
			return apperror.New(apperror.ErrCodeUnauthorized, "неверная подпись вебхука")
		}
		return nil
	}
	return apperror.New(apperror.ErrCodeValidation, "неподдерживаемый провайдер")
}

type paystackWebhook struct {
	Event string `json:"event"`
	Data  struct {
		Reference string          `json:"reference"`
		ID        json.RawMessage `json:"id"`
	} `json:"data"`
}

func parsePaystack(body []byte) (escrow.ProviderEvent, error) {
	var hook paystackWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return escrow.ProviderEvent{}, apperror.Wrap(err, apperror.ErrCodeValidation, "некорректный вебхук paystack")
	}

	var status valueobject.EscrowStatus
	switch hook.Event {
	case "charge.success":
		status = valueobject.EscrowStatusFunded
	case "charge.failed":
		status = valueobject.EscrowStatusFailed
	case "refund.processed":
		status = valueobject.EscrowStatusRefunded
	case "charge.dispute.create":
		status = valueobject.EscrowStatusDisputed
	default:
		return escrow.ProviderEvent{}, ErrIgnoredEvent
	}

	return escrow.ProviderEvent{
		Provider:    valueobject.ProviderPaystack,
		Reference:   hook.Data.Reference,
		Status:      status,
		ProviderRef: rawID(hook.Data.ID),
		Payload:     json.RawMessage(body),
	}, nil
}

type flutterwaveWebhook struct {
	Event string `json:"event"`
	Data  struct {
		TxRef  string `json:"tx_ref"`
		FlwRef string `json:"flw_ref"`
		Status string `json:"status"`
	} `json:"data"`
}

func parseFlutterwave(body []byte) (escrow.ProviderEvent, error) {
	var hook flutterwaveWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		return escrow.ProviderEvent{}, apperror.Wrap(err, apperror.ErrCodeValidation, "некорректный вебхук flutterwave")
	}

	var status valueobject.EscrowStatus
	switch {
	case hook.Event == "charge.completed" && hook.Data.Status == "successful":
		status = valueobject.EscrowStatusFunded
	case hook.Event == "charge.completed" && hook.Data.Status == "failed":
		status = valueobject.EscrowStatusFailed
	case hook.Event == "refund.completed":
		status = valueobject.EscrowStatusRefunded
	default:
		return escrow.ProviderEvent{}, ErrIgnoredEvent
	}

	var ref *string
	if hook.Data.FlwRef != "" {
		ref = &hook.Data.FlwRef
	}
	return escrow.ProviderEvent{
		Provider:    valueobject.ProviderFlutterwave,
		Reference:   hook.Data.TxRef,
		Status:      status,
		ProviderRef: ref,
		Payload:     json.RawMessage(body),
	}, nil
}

func rawID(raw json.RawMessage) *string {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	return &s
}
