package valueobject_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		expected     bool
	}{
		{"inside", "2025-06-01", "2025-06-10", "2025-06-03", "2025-06-05", true},
		{"partial", "2025-06-01", "2025-06-10", "2025-06-09", "2025-06-12", true},
		{"touching end", "2025-06-01", "2025-06-10", "2025-06-10", "2025-06-12", false},
		{"touching start", "2025-06-10", "2025-06-15", "2025-06-01", "2025-06-10", false},
		{"disjoint", "2025-06-01", "2025-06-05", "2025-07-01", "2025-07-05", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := valueobject.Overlaps(day(tc.aStart), day(tc.aEnd), day(tc.bStart), day(tc.bEnd))
			assert.Equal(t, tc.expected, got)
			// симметричность
			assert.Equal(t, tc.expected, valueobject.Overlaps(day(tc.bStart), day(tc.bEnd), day(tc.aStart), day(tc.aEnd)))
		})
	}
}

func TestWithinAvailability(t *testing.T) {
	slots := []valueobject.Slot{
		{Start: day("2025-06-01"), End: day("2025-06-30")},
		{Start: day("2025-06-30"), End: day("2025-07-10")},
	}

	assert.True(t, valueobject.WithinAvailability(day("2025-06-05"), day("2025-06-10"), nil))
	assert.True(t, valueobject.WithinAvailability(day("2025-06-05"), day("2025-06-10"), slots))
	assert.True(t, valueobject.WithinAvailability(day("2025-06-01"), day("2025-06-30"), slots))
	assert.False(t, valueobject.WithinAvailability(day("2025-07-01"), day("2025-07-15"), slots))
	// запрос через границу двух окон не допускается
	assert.False(t, valueobject.WithinAvailability(day("2025-06-25"), day("2025-07-05"), slots))
}

func TestDurationDays(t *testing.T) {
	assert.Equal(t, int64(9), valueobject.DurationDays(day("2025-06-01"), day("2025-06-10")))
	assert.Equal(t, int64(1), valueobject.DurationDays(day("2025-06-01"), day("2025-06-01").Add(3*time.Hour)))
	assert.Equal(t, int64(2), valueobject.DurationDays(day("2025-06-01"), day("2025-06-02").Add(time.Minute)))
	assert.Equal(t, int64(0), valueobject.DurationDays(day("2025-06-02"), day("2025-06-01")))
}

func TestCalculateAmounts_Example(t *testing.T) {
	amounts, err := valueobject.CalculateAmounts(107000, 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7490), amounts.PlatformFee)
	assert.Equal(t, int64(99510), amounts.OwnerPayout)
	assert.Equal(t, int64(10700000), amounts.TotalMinor)
	assert.Equal(t, int64(749000), amounts.PlatformFeeMinor)
	assert.Equal(t, int64(9951000), amounts.OwnerPayoutMinor)
}

func TestCalculateAmounts_SumIsExact(t *testing.T) {
	for _, fee := range []int64{0, 1, 5, 7, 13, 50, 100} {
		for total := int64(0); total < 3000; total += 7 {
			amounts, err := valueobject.CalculateAmounts(total, fee)
			require.NoError(t, err)
			assert.Equal(t, total, amounts.PlatformFee+amounts.OwnerPayout, "total=%d fee=%d", total, fee)
			assert.Equal(t, amounts.TotalMinor, amounts.PlatformFeeMinor+amounts.OwnerPayoutMinor)
		}
	}
}

func TestCalculateAmounts_RoundsHalfUp(t *testing.T) {
	// 50 * 7 / 100 = 3.5 -> 4
	amounts, err := valueobject.CalculateAmounts(50, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), amounts.PlatformFee)
	assert.Equal(t, int64(46), amounts.OwnerPayout)

	// 10 * 7 / 100 = 0.7 -> 1
	amounts, err = valueobject.CalculateAmounts(10, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), amounts.PlatformFee)
}

func TestCalculateAmounts_Invalid(t *testing.T) {
	_, err := valueobject.CalculateAmounts(-1, 7)
	assert.Error(t, err)

	_, err = valueobject.CalculateAmounts(100, 101)
	assert.Error(t, err)

	_, err = valueobject.CalculateAmounts(valueobject.MaxAmount+1, 7)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.CodeOf(err))
}

func TestCalculateAmounts_LargestAmountStaysExact(t *testing.T) {
	amounts, err := valueobject.CalculateAmounts(valueobject.MaxAmount, 100)
	require.NoError(t, err)
	assert.Equal(t, valueobject.MaxAmount, amounts.PlatformFee+amounts.OwnerPayout)
	assert.Equal(t, amounts.TotalMinor, amounts.PlatformFeeMinor+amounts.OwnerPayoutMinor)
	assert.Positive(t, amounts.TotalMinor)
}

func TestMultiplyAmount(t *testing.T) {
	total, err := valueobject.MultiplyAmount(10700, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(107000), total)

	total, err = valueobject.MultiplyAmount(10700, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = valueobject.MultiplyAmount(math.MaxInt64/2, 3)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.CodeOf(err))

	_, err = valueobject.MultiplyAmount(valueobject.MaxAmount, 2)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.CodeOf(err))
}

func TestBookingStatus_Transitions(t *testing.T) {
	assert.True(t, valueobject.BookingStatusRequested.CanTransitionTo(valueobject.BookingStatusCountered))
	assert.True(t, valueobject.BookingStatusRequested.CanTransitionTo(valueobject.BookingStatusAccepted))
	assert.True(t, valueobject.BookingStatusCountered.CanTransitionTo(valueobject.BookingStatusCancelled))
	assert.False(t, valueobject.BookingStatusCountered.CanTransitionTo(valueobject.BookingStatusRequested))
	assert.False(t, valueobject.BookingStatusCountered.CanTransitionTo(valueobject.BookingStatusCountered))
	assert.False(t, valueobject.BookingStatusAccepted.CanTransitionTo(valueobject.BookingStatusCancelled))
	assert.True(t, valueobject.BookingStatusAccepted.IsTerminal())
	assert.True(t, valueobject.BookingStatusCancelled.IsTerminal())
	assert.False(t, valueobject.BookingStatusCancelled.IsActive())
}

func TestEscrowStatus_Transitions(t *testing.T) {
	allowed := map[[2]valueobject.EscrowStatus]bool{
		{valueobject.EscrowStatusPending, valueobject.EscrowStatusProcessing}:  true,
		{valueobject.EscrowStatusProcessing, valueobject.EscrowStatusFunded}:   true,
		{valueobject.EscrowStatusFunded, valueobject.EscrowStatusReleased}:     true,
		{valueobject.EscrowStatusFunded, valueobject.EscrowStatusRefunded}:     true,
		{valueobject.EscrowStatusPending, valueobject.EscrowStatusFailed}:      true,
		{valueobject.EscrowStatusReleased, valueobject.EscrowStatusDisputed}:   true,
		{valueobject.EscrowStatusPending, valueobject.EscrowStatusFunded}:      false,
		{valueobject.EscrowStatusFunded, valueobject.EscrowStatusProcessing}:   false,
		{valueobject.EscrowStatusReleased, valueobject.EscrowStatusFunded}:     false,
		{valueobject.EscrowStatusProcessing, valueobject.EscrowStatusRefunded}: false,
		{valueobject.EscrowStatusFunded, valueobject.EscrowStatusFunded}:       false,
	}

	for pair, expected := range allowed {
		assert.Equal(t, expected, pair[0].CanTransitionTo(pair[1]), "%s -> %s", pair[0], pair[1])
	}
}

func TestEscrowStatus_FailedAndDisputedFromAnyState(t *testing.T) {
	all := []valueobject.EscrowStatus{
		valueobject.EscrowStatusPending, valueobject.EscrowStatusProcessing, valueobject.EscrowStatusFunded,
		valueobject.EscrowStatusReleased, valueobject.EscrowStatusRefunded,
		valueobject.EscrowStatusFailed, valueobject.EscrowStatusDisputed,
	}
	for _, from := range all {
		for _, to := range []valueobject.EscrowStatus{valueobject.EscrowStatusFailed, valueobject.EscrowStatusDisputed} {
			assert.Equal(t, from != to, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	// Из FAILED и DISPUTED обратно в денежный поток не вернуться.
	for _, from := range []valueobject.EscrowStatus{valueobject.EscrowStatusFailed, valueobject.EscrowStatusDisputed} {
		for _, to := range []valueobject.EscrowStatus{
			valueobject.EscrowStatusProcessing, valueobject.EscrowStatusFunded,
			valueobject.EscrowStatusReleased, valueobject.EscrowStatusRefunded,
		} {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestNewPaymentProviderAndCurrency(t *testing.T) {
	p, err := valueobject.NewPaymentProvider("PAYSTACK")
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProviderPaystack, p)

	_, err = valueobject.NewPaymentProvider("STRIPE")
	assert.Error(t, err)

	_, err = valueobject.NewCurrency("EUR")
	assert.Error(t, err)
}
