package payment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
)

// Catalogue описывает справочник платёжных провайдеров: адреса API, checkout и поддерживаемые валюты.
type Catalogue struct {
	CallbackURL   string                  `yaml:"callback_url"`
	CheckoutTitle string                  `yaml:"checkout_title"`
	Providers     map[string]ProviderSpec `yaml:"providers"`
}

type ProviderSpec struct {
	InitializeURL   string   `yaml:"initialize_url"`
	CheckoutBaseURL string   `yaml:"checkout_base_url"`
	Currencies      []string `yaml:"currencies"`
}

// LoadCatalogue читает YAML; при пустом пути возвращает встроенные значения.
func LoadCatalogue(path string) (Catalogue, error) {
	cfg := defaultCatalogue()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("providers.yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("providers.yaml: %w", err)
	}
	return cfg, nil
}

func defaultCatalogue() Catalogue {
	return Catalogue{
		CheckoutTitle: "Vessel charter escrow",
		Providers: map[string]ProviderSpec{
			string(valueobject.ProviderPaystack): {
				InitializeURL:   "https://api.paystack.co/transaction/initialize",
				CheckoutBaseURL: "https://checkout.paystack.com/",
				Currencies:      []string{"NGN", "USD"},
			},
			string(valueobject.ProviderFlutterwave): {
				InitializeURL:   "https://api.flutterwave.com/v3/payments",
				CheckoutBaseURL: "https://checkout.flutterwave.com/v3/hosted/pay/",
				Currencies:      []string{"NGN", "USD"},
			},
		},
	}
}

func (c Catalogue) Validate() error {
	for name, spec := range c.Providers {
		if _, err := valueobject.NewPaymentProvider(name); err != nil {
			return fmt.Errorf("неизвестный провайдер %q", name)
		}
		if spec.InitializeURL == "" || spec.CheckoutBaseURL == "" {
			return fmt.Errorf("провайдер %s: initialize_url и checkout_base_url обязательны", name)
		}
		for _, cur := range spec.Currencies {
			if _, err := valueobject.NewCurrency(cur); err != nil {
				return fmt.Errorf("провайдер %s: неизвестная валюта %q", name, cur)
			}
		}
	}
	return nil
}

func (c Catalogue) provider(p valueobject.PaymentProvider) (ProviderSpec, bool) {
	spec, ok := c.Providers[string(p)]
	return spec, ok
}

func (s ProviderSpec) supports(currency valueobject.Currency) bool {
	for _, cur := range s.Currencies {
		if cur == string(currency) {
			return true
		}
	}
	return false
}
