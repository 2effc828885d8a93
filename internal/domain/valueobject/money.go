package valueobject

import (
	"math"

	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

// MinorUnitsPerMajor: копейки/центы/кобо в одной единице валюты.
const MinorUnitsPerMajor = 100

// MaxAmount ограничивает сумму сделки так, чтобы умножение на процент комиссии
// и перевод в минимальные единицы оставались в пределах int64.
const MaxAmount int64 = math.MaxInt64 / (100 * MinorUnitsPerMajor)

var errAmountTooLarge = apperror.New(apperror.ErrCodeValidation, "сумма сделки слишком велика")

// MultiplyAmount перемножает ставку и количество, не выходя за MaxAmount.
func MultiplyAmount(rate, quantity int64) (int64, error) {
	if rate < 0 || quantity < 0 {
		return 0, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if quantity != 0 && rate > MaxAmount/quantity {
		return 0, errAmountTooLarge
	}
	return rate * quantity, nil
}

// DefaultPlatformFeePercent используется, если комиссия не задана в конфигурации.
const DefaultPlatformFeePercent int64 = 7

// Amounts: разбиение суммы сделки между площадкой и владельцем.
type Amounts struct {
	Total            int64 `json:"total"`
	PlatformFee      int64 `json:"platform_fee"`
	OwnerPayout      int64 `json:"owner_payout"`
	TotalMinor       int64 `json:"total_minor"`
	PlatformFeeMinor int64 `json:"platform_fee_minor"`
	OwnerPayoutMinor int64 `json:"owner_payout_minor"`
	FeePercent       int64 `json:"fee_percent"`
}

// CalculateAmounts считает комиссию с округлением половины вверх в целых числах.
// Выплата владельцу не округляется отдельно: PlatformFee + OwnerPayout == Total.
func CalculateAmounts(total, feePercent int64) (Amounts, error) {
	if total < 0 {
		return Amounts{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if total > MaxAmount {
		return Amounts{}, errAmountTooLarge
	}
	if feePercent < 0 || feePercent > 100 {
		return Amounts{}, apperror.New(apperror.ErrCodeValidation, "комиссия должна быть от 0 до 100 процентов")
	}

	fee := (total*feePercent + 50) / 100
	payout := total - fee

	return Amounts{
		Total:            total,
		PlatformFee:      fee,
		OwnerPayout:      payout,
		TotalMinor:       total * MinorUnitsPerMajor,
		PlatformFeeMinor: fee * MinorUnitsPerMajor,
		OwnerPayoutMinor: payout * MinorUnitsPerMajor,
		FeePercent:       feePercent,
	}, nil
}
