package payment

import (
	"encoding/json"
	"fmt"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

// Gateway собирает тела запросов инициализации платежа. Сам запрос отправляет
// внешний воркер: ядро не ждёт ответа провайдера.
type Gateway struct {
	catalogue Catalogue
}

func NewGateway(catalogue Catalogue) *Gateway {
	return &Gateway{catalogue: catalogue}
}

var _ repository.PaymentGateway = (*Gateway)(nil)

type paystackInitialize struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata"`
}

type flutterwaveCustomer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type flutterwaveCustomizations struct {
	Title string `json:"title"`
}

type flutterwaveInitialize struct {
	TxRef          string                    `json:"tx_ref"`
	Amount         string                    `json:"amount"`
	Currency       string                    `json:"currency"`
	RedirectURL    string                    `json:"redirect_url,omitempty"`
	Customer       flutterwaveCustomer       `json:"customer"`
	Meta           map[string]any            `json:"meta"`
	Customizations flutterwaveCustomizations `json:"customizations"`
}

func (g *Gateway) BuildPayment(tx *entity.EscrowTransaction, payer entity.Party) (*repository.PaymentRequest, error) {
	spec, ok := g.catalogue.provider(tx.Provider)
	if !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("провайдер %s не настроен", tx.Provider))
	}
	if !spec.supports(tx.Currency) {
		return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("провайдер %s не принимает %s", tx.Provider, tx.Currency))
	}
	if payer.Email == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "у плательщика не указан email")
	}

	meta := map[string]any{
		"escrow_id":    tx.ID.String(),
		"booking_id":   tx.BookingID.String(),
		"platform_fee": tx.Fee,
		"owner_payout": tx.OwnerPayout,
	}

	var body any
	switch tx.Provider {
	case valueobject.ProviderPaystack:
		// Paystack принимает сумму в минимальных единицах (kobo/cents).
		body = paystackInitialize{
			Email:       payer.Email,
			Amount:      tx.Amount,
			Currency:    string(tx.Currency),
			Reference:   tx.Reference,
			CallbackURL: g.catalogue.CallbackURL,
			Metadata:    meta,
		}
	case valueobject.ProviderFlutterwave:
		// Flutterwave принимает основные единицы.
		body = flutterwaveInitialize{
			TxRef:          tx.Reference,
			Amount:         formatMajor(tx.Amount),
			Currency:       string(tx.Currency),
			RedirectURL:    g.catalogue.CallbackURL,
			Customer:       flutterwaveCustomer{Email: payer.Email, Name: payer.DisplayName},
			Meta:           meta,
			Customizations: flutterwaveCustomizations{Title: g.catalogue.CheckoutTitle},
		}
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "неподдерживаемый провайдер")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сформировать платёжный запрос")
	}

	return &repository.PaymentRequest{
		Provider:   string(tx.Provider),
		Reference:  tx.Reference,
		PaymentURL: spec.CheckoutBaseURL + tx.Reference,
		Endpoint:   spec.InitializeURL,
		Payload:    payload,
	}, nil
}

// formatMajor переводит минимальные единицы в строку вида "1070.00" без float.
func formatMajor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/valueobject.MinorUnitsPerMajor, minor%valueobject.MinorUnitsPerMajor)
}
