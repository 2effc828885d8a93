package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
	"github.com/ignatzorin/vessel-charter/internal/usecase/booking"
	"github.com/ignatzorin/vessel-charter/internal/usecase/shared"
	"github.com/ignatzorin/vessel-charter/internal/usecase/usecasetest"
)

var base = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.AddDate(0, 0, n) }

type fixture struct {
	store    *usecasetest.Store
	recorder *usecasetest.Recorder
	owner    entity.Actor
	operator entity.Actor
	admin    entity.Actor
	vessel   *entity.Vessel
	create   *booking.CreateBookingUseCase
	update   *booking.UpdateBookingUseCase
	history  *booking.GetHistoryUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := usecasetest.NewStore()
	recorder := usecasetest.NewRecorder()
	announcer := shared.NewAnnouncer(recorder, recorder)

	f := &fixture{
		store:    store,
		recorder: recorder,
		owner:    entity.Actor{ID: uuid.New(), Role: valueobject.RoleOwner},
		operator: entity.Actor{ID: uuid.New(), Role: valueobject.RoleOperator, Email: "ops@example.com"},
		admin:    entity.Actor{ID: uuid.New(), Role: valueobject.RoleAdmin},
	}
	store.AddParty(entity.Party{ID: f.operator.ID, DisplayName: "Delta Logistics", Email: f.operator.Email})

	vessel, err := entity.NewVessel(f.owner.ID, entity.VesselSpec{Name: "MV Lagos Star", VesselType: "supply"}, 1000, valueobject.CurrencyNGN)
	require.NoError(t, err)
	require.NoError(t, vessel.Activate())
	require.NoError(t, store.Vessels().Create(context.Background(), vessel))
	slot, err := vessel.NewSlot(day(0), day(60))
	require.NoError(t, err)
	require.NoError(t, store.Vessels().AddSlot(context.Background(), slot))
	f.vessel = vessel

	f.create = booking.NewCreateBookingUseCase(store.Bookings(), store.Parties(), announcer)
	f.update = booking.NewUpdateBookingUseCase(store.Bookings(), store.Vessels(), store.Escrows(), announcer)
	f.history = booking.NewGetHistoryUseCase(store.Bookings(), store.Vessels())
	return f
}

func (f *fixture) request(t *testing.T, from, to int) *entity.Booking {
	t.Helper()
	details, err := f.create.Execute(context.Background(), f.operator, booking.CreateBookingInput{
		VesselID: f.vessel.ID,
		Start:    day(from),
		End:      day(to),
		Terms:    entity.BookingTerms{Purpose: "Offshore crew transfer"},
	})
	require.NoError(t, err)
	return details.Booking
}

func strPtr(s string) *string { return &s }

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t)

	details, err := f.create.Execute(context.Background(), f.operator, booking.CreateBookingInput{
		VesselID: f.vessel.ID,
		Start:    day(1),
		End:      day(5),
		Terms:    entity.BookingTerms{Purpose: "Offshore crew transfer"},
	})
	require.NoError(t, err)

	assert.Equal(t, valueobject.BookingStatusRequested, details.Booking.Status)
	assert.Equal(t, f.vessel.ID, details.Vessel.ID)
	assert.Equal(t, "Delta Logistics", details.Operator.DisplayName)
	assert.Equal(t, []string{booking.EventBookingCreated}, f.recorder.Events())
	assert.Len(t, f.recorder.Notifications[f.owner.ID], 1)
	assert.Len(t, f.recorder.Notifications[f.operator.ID], 1)
}

func TestCreateBooking_Rejections(t *testing.T) {
	f := newFixture(t)
	f.request(t, 10, 15)

	tests := []struct {
		name  string
		actor entity.Actor
		from  int
		to    int
		code  apperror.ErrorCode
	}{
		{"overlap", f.operator, 12, 20, apperror.ErrCodeOverlapConflict},
		{"outside availability", f.operator, 55, 65, apperror.ErrCodeOutsideAvailability},
		{"empty range", f.operator, 3, 3, apperror.ErrCodeDateRangeInvalid},
		{"owner books own vessel", f.owner, 20, 22, apperror.ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.create.Execute(context.Background(), tt.actor, booking.CreateBookingInput{
				VesselID: f.vessel.ID,
				Start:    day(tt.from),
				End:      day(tt.to),
				Terms:    entity.BookingTerms{Purpose: "Offshore crew transfer"},
			})
			require.Error(t, err)
			assert.Equal(t, tt.code, apperror.CodeOf(err))
		})
	}
}

func TestCreateBooking_AdjacentRangesAllowed(t *testing.T) {
	f := newFixture(t)
	f.request(t, 10, 15)

	b := f.request(t, 15, 18)
	assert.Equal(t, day(15), b.Start)
}

func TestCreateBooking_DraftVessel(t *testing.T) {
	f := newFixture(t)
	draft, err := entity.NewVessel(f.owner.ID, entity.VesselSpec{Name: "Draft", VesselType: "tug"}, 500, valueobject.CurrencyUSD)
	require.NoError(t, err)
	require.NoError(t, f.store.Vessels().Create(context.Background(), draft))

	_, err = f.create.Execute(context.Background(), f.operator, booking.CreateBookingInput{
		VesselID: draft.ID,
		Start:    day(1),
		End:      day(2),
		Terms:    entity.BookingTerms{Purpose: "Offshore crew transfer"},
	})
	assert.ErrorIs(t, err, apperror.ErrVesselNotActive)
}

func TestCreateBooking_ConcurrentRequestsAdmitOne(t *testing.T) {
	f := newFixture(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			operator := entity.Actor{ID: uuid.New(), Role: valueobject.RoleOperator}
			_, err := f.create.Execute(context.Background(), operator, booking.CreateBookingInput{
				VesselID: f.vessel.ID,
				Start:    day(20),
				End:      day(25),
				Terms:    entity.BookingTerms{Purpose: "Offshore crew transfer"},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperror.ErrOverlapConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
}

func TestUpdateBooking_CounterWithTermsWritesOneEntry(t *testing.T) {
	f := newFixture(t)
	b := f.request(t, 1, 4)

	updated, err := f.update.Execute(context.Background(), f.owner, b.ID, booking.UpdateBookingInput{
		Status: strPtr(string(valueobject.BookingStatusCountered)),
		Note:   "route via Bonny",
		Terms:  &entity.TermsPatch{Route: strPtr("Lagos - Bonny")},
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusCountered, updated.Status)

	entries, err := f.history.Execute(context.Background(), f.operator, b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, "route via Bonny", entries[0].Note)
	assert.Equal(t, f.owner.ID, entries[0].UpdatedBy)
	assert.Contains(t, entries[0].Changes, "route")
	assert.Equal(t, entity.FieldChange{From: "REQUESTED", To: "COUNTERED"}, entries[0].Changes["status"])
	assert.Contains(t, f.recorder.Events(), booking.EventBookingStatusChanged)
}

func TestUpdateBooking_NoteOnlyAppendsEntry(t *testing.T) {
	f := newFixture(t)
	b := f.request(t, 1, 4)

	_, err := f.update.Execute(context.Background(), f.operator, b.ID, booking.UpdateBookingInput{Note: "can we start earlier?"})
	require.NoError(t, err)
	_, err = f.update.Execute(context.Background(), f.owner, b.ID, booking.UpdateBookingInput{Note: "no"})
	require.NoError(t, err)

	entries, err := f.history.Execute(context.Background(), f.owner, b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, int64(2), entries[1].Seq)
	assert.Empty(t, entries[1].Changes)
	assert.Contains(t, f.recorder.Events(), booking.EventBookingTermsUpdated)
}

func TestUpdateBooking_Permissions(t *testing.T) {
	f := newFixture(t)
	stranger := entity.Actor{ID: uuid.New(), Role: valueobject.RoleOperator}

	tests := []struct {
		name   string
		actor  entity.Actor
		status valueobject.BookingStatus
		code   apperror.ErrorCode
	}{
		{"operator cannot accept", f.operator, valueobject.BookingStatusAccepted, apperror.ErrCodeForbidden},
		{"operator cannot counter", f.operator, valueobject.BookingStatusCountered, apperror.ErrCodeForbidden},
		{"stranger cannot cancel", stranger, valueobject.BookingStatusCancelled, apperror.ErrCodeForbidden},
		{"owner cannot reset to requested", f.owner, valueobject.BookingStatusRequested, apperror.ErrCodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := f.request(t, 1, 3)
			defer f.store.Bookings().SetStatus(b.ID, valueobject.BookingStatusCancelled)

			_, err := f.update.Execute(context.Background(), tt.actor, b.ID, booking.UpdateBookingInput{Status: strPtr(string(tt.status))})
			require.Error(t, err)
			assert.Equal(t, tt.code, apperror.CodeOf(err))
		})
	}
}

func TestUpdateBooking_AllowedTransitions(t *testing.T) {
	f := newFixture(t)

	t.Run("operator cancels", func(t *testing.T) {
		b := f.request(t, 1, 3)
		updated, err := f.update.Execute(context.Background(), f.operator, b.ID, booking.UpdateBookingInput{Status: strPtr("CANCELLED")})
		require.NoError(t, err)
		assert.Equal(t, valueobject.BookingStatusCancelled, updated.Status)
	})

	t.Run("owner accepts counter", func(t *testing.T) {
		b := f.request(t, 5, 8)
		_, err := f.update.Execute(context.Background(), f.owner, b.ID, booking.UpdateBookingInput{Status: strPtr("COUNTERED")})
		require.NoError(t, err)
		updated, err := f.update.Execute(context.Background(), f.owner, b.ID, booking.UpdateBookingInput{Status: strPtr("ACCEPTED")})
		require.NoError(t, err)
		assert.Equal(t, valueobject.BookingStatusAccepted, updated.Status)
	})

	t.Run("admin cancels", func(t *testing.T) {
		b := f.request(t, 10, 12)
		updated, err := f.update.Execute(context.Background(), f.admin, b.ID, booking.UpdateBookingInput{Status: strPtr("CANCELLED")})
		require.NoError(t, err)
		assert.Equal(t, valueobject.BookingStatusCancelled, updated.Status)
	})
}

func TestUpdateBooking_TerminalIsImmutable(t *testing.T) {
	f := newFixture(t)
	b := f.request(t, 1, 3)
	_, err := f.update.Execute(context.Background(), f.owner, b.ID, booking.UpdateBookingInput{Status: strPtr("ACCEPTED")})
	require.NoError(t, err)

	inputs := []booking.UpdateBookingInput{
		{Status: strPtr("CANCELLED")},
		{Note: "late note"},
		{Terms: &entity.TermsPatch{Route: strPtr("anywhere")}},
	}
	for _, actor := range []entity.Actor{f.owner, f.operator, f.admin} {
		for _, input := range inputs {
			_, err := f.update.Execute(context.Background(), actor, b.ID, input)
			assert.ErrorIs(t, err, apperror.ErrImmutableState)
		}
	}
}

func TestUpdateBooking_CancelBlockedByFundedEscrow(t *testing.T) {
	f := newFixture(t)
	b := f.request(t, 1, 3)

	amounts, err := valueobject.CalculateAmounts(2000, valueobject.DefaultPlatformFeePercent)
	require.NoError(t, err)
	tx := entity.NewEscrowTransaction(b.ID, valueobject.ProviderPaystack, valueobject.CurrencyNGN, amounts)
	require.NoError(t, f.store.Escrows().Create(context.Background(), tx))
	f.store.Escrows().SetEscrowStatus(tx.ID, valueobject.EscrowStatusFunded)

	_, err = f.update.Execute(context.Background(), f.operator, b.ID, booking.UpdateBookingInput{Status: strPtr("CANCELLED")})
	assert.ErrorIs(t, err, apperror.ErrEscrowAlreadyFunded)

	stored, err := f.store.Bookings().FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusRequested, stored.Status)
}

// staleBookings отдаёт бронь и сразу меняет её статус «параллельным» запросом.
type staleBookings struct {
	*usecasetest.BookingRepository
}

func (r staleBookings) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	b, err := r.BookingRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.SetStatus(id, valueobject.BookingStatusCountered)
	return b, nil
}

func TestUpdateBooking_ConcurrencyConflict(t *testing.T) {
	f := newFixture(t)
	b := f.request(t, 1, 3)

	uc := booking.NewUpdateBookingUseCase(staleBookings{f.store.Bookings()}, f.store.Vessels(), f.store.Escrows(), nil)
	_, err := uc.Execute(context.Background(), f.owner, b.ID, booking.UpdateBookingInput{Status: strPtr("ACCEPTED")})
	assert.ErrorIs(t, err, apperror.ErrConcurrencyConflict)

	entries, err := f.store.Bookings().History(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// racingBookings после чтения брони выполняет конкурирующую правку условий.
type racingBookings struct {
	*usecasetest.BookingRepository
	race func(id uuid.UUID)
}

func (r *racingBookings) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	b, err := r.BookingRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if race := r.race; race != nil {
		r.race = nil
		race(id)
	}
	return b, nil
}

func TestUpdateBooking_ConcurrentTermsEditNotLost(t *testing.T) {
	f := newFixture(t)
	b := f.request(t, 1, 3)
	ctx := context.Background()

	repo := &racingBookings{BookingRepository: f.store.Bookings(), race: func(id uuid.UUID) {
		_, err := f.update.Execute(ctx, f.operator, id, booking.UpdateBookingInput{
			Terms: &entity.TermsPatch{CargoType: strPtr("crude")},
		})
		require.NoError(t, err)
	}}
	uc := booking.NewUpdateBookingUseCase(repo, f.store.Vessels(), f.store.Escrows(), nil)

	_, err := uc.Execute(ctx, f.owner, b.ID, booking.UpdateBookingInput{
		Terms: &entity.TermsPatch{Route: strPtr("Lagos - Bonny")},
	})
	assert.ErrorIs(t, err, apperror.ErrConcurrencyConflict)

	stored, err := f.store.Bookings().FindByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Terms.CargoType)
	assert.Equal(t, "crude", *stored.Terms.CargoType)
	assert.Nil(t, stored.Terms.Route)
	assert.Equal(t, int64(2), stored.Version)

	entries, err := f.store.Bookings().History(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Changes, "cargo_type")

	// После перечитывания правка владельца проходит поверх свежих условий.
	updated, err := f.update.Execute(ctx, f.owner, b.ID, booking.UpdateBookingInput{
		Terms: &entity.TermsPatch{Route: strPtr("Lagos - Bonny")},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.Version)
	require.NotNil(t, updated.Terms.CargoType)
	assert.Equal(t, "crude", *updated.Terms.CargoType)
}

func TestUpdateBooking_EmptyInput(t *testing.T) {
	f := newFixture(t)
	b := f.request(t, 1, 3)

	_, err := f.update.Execute(context.Background(), f.owner, b.ID, booking.UpdateBookingInput{Terms: &entity.TermsPatch{}})
	assert.True(t, apperror.IsValidation(err))
}

func TestGetHistory_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	b := f.request(t, 1, 3)

	_, err := f.history.Execute(context.Background(), entity.Actor{ID: uuid.New(), Role: valueobject.RoleOwner}, b.ID)
	assert.True(t, apperror.IsForbidden(err))
}

func TestListVesselBookings_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	f.request(t, 1, 3)
	f.request(t, 4, 6)
	uc := booking.NewListVesselBookingsUseCase(f.store.Bookings(), f.store.Vessels())

	list, err := uc.Execute(context.Background(), f.owner, f.vessel.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.True(t, list[0].Start.Before(list[1].Start))

	_, err = uc.Execute(context.Background(), f.operator, f.vessel.ID)
	assert.True(t, apperror.IsForbidden(err))
}
