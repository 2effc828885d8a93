package entity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
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

func activeVessel(t *testing.T) *entity.Vessel {
	t.Helper()
	v, err := entity.NewVessel(uuid.New(), entity.VesselSpec{Name: "MV Lagos Star", VesselType: "supply"}, 1000, valueobject.CurrencyUSD)
	require.NoError(t, err)
	require.NoError(t, v.Activate())
	return v
}

func validTerms() entity.BookingTerms {
	return entity.BookingTerms{Purpose: "Offshore crew transfer to rig"}
}

func existing(start, end string, status valueobject.BookingStatus) *entity.Booking {
	return &entity.Booking{ID: uuid.New(), Start: day(start), End: day(end), Status: status}
}

func TestNewBooking_NoSlots(t *testing.T) {
	vessel := activeVessel(t)

	b, err := entity.NewBooking(vessel, uuid.New(), day("2025-06-01"), day("2025-06-10"), validTerms(), nil)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BookingStatusRequested, b.Status)
	assert.Equal(t, vessel.ID, b.VesselID)
}

func TestNewBooking_WithinSlot(t *testing.T) {
	vessel := activeVessel(t)
	slot, err := vessel.NewSlot(day("2025-06-01"), day("2025-06-30"))
	require.NoError(t, err)
	vessel.Slots = append(vessel.Slots, *slot)

	_, err = entity.NewBooking(vessel, uuid.New(), day("2025-06-05"), day("2025-06-10"), validTerms(), nil)
	assert.NoError(t, err)

	_, err = entity.NewBooking(vessel, uuid.New(), day("2025-07-01"), day("2025-07-05"), validTerms(), nil)
	assert.ErrorIs(t, err, apperror.ErrOutsideAvailability)
}

func TestNewBooking_Preconditions(t *testing.T) {
	vessel := activeVessel(t)

	_, err := entity.NewBooking(vessel, uuid.New(), day("2025-06-10"), day("2025-06-10"), validTerms(), nil)
	assert.ErrorIs(t, err, apperror.ErrDateRangeInvalid)

	_, err = entity.NewBooking(vessel, vessel.OwnerID, day("2025-06-01"), day("2025-06-10"), validTerms(), nil)
	assert.True(t, apperror.IsForbidden(err))

	_, err = entity.NewBooking(vessel, uuid.New(), day("2025-06-01"), day("2025-06-10"), entity.BookingTerms{Purpose: "short"}, nil)
	assert.True(t, apperror.IsValidation(err))

	draft, err := entity.NewVessel(uuid.New(), entity.VesselSpec{Name: "Draft", VesselType: "tug"}, 500, valueobject.CurrencyNGN)
	require.NoError(t, err)
	_, err = entity.NewBooking(draft, uuid.New(), day("2025-06-01"), day("2025-06-10"), validTerms(), nil)
	assert.ErrorIs(t, err, apperror.ErrVesselNotActive)
}

func TestValidateNewBooking_Overlap(t *testing.T) {
	vessel := activeVessel(t)

	for _, status := range []valueobject.BookingStatus{
		valueobject.BookingStatusRequested,
		valueobject.BookingStatusCountered,
		valueobject.BookingStatusAccepted,
	} {
		active := []*entity.Booking{existing("2025-06-05", "2025-06-08", status)}
		err := entity.ValidateNewBooking(vessel, day("2025-06-01"), day("2025-06-10"), active)
		assert.ErrorIs(t, err, apperror.ErrOverlapConflict, "status %s", status)
	}

	cancelled := []*entity.Booking{existing("2025-06-05", "2025-06-08", valueobject.BookingStatusCancelled)}
	assert.NoError(t, entity.ValidateNewBooking(vessel, day("2025-06-01"), day("2025-06-10"), cancelled))

	adjacent := []*entity.Booking{existing("2025-06-10", "2025-06-12", valueobject.BookingStatusAccepted)}
	assert.NoError(t, entity.ValidateNewBooking(vessel, day("2025-06-01"), day("2025-06-10"), adjacent))
}

func TestBookingTransition_Permissions(t *testing.T) {
	ownerID := uuid.New()
	operatorID := uuid.New()
	owner := entity.Actor{ID: ownerID, Role: valueobject.RoleOwner}
	operator := entity.Actor{ID: operatorID, Role: valueobject.RoleOperator}
	admin := entity.Actor{ID: uuid.New(), Role: valueobject.RoleAdmin}
	stranger := entity.Actor{ID: uuid.New(), Role: valueobject.RoleOperator}

	newBooking := func(status valueobject.BookingStatus) *entity.Booking {
		return &entity.Booking{ID: uuid.New(), OperatorID: operatorID, Status: status}
	}

	b := newBooking(valueobject.BookingStatusRequested)
	assert.NoError(t, b.Transition(owner, ownerID, valueobject.BookingStatusCountered))
	assert.NoError(t, b.Transition(owner, ownerID, valueobject.BookingStatusAccepted))

	b = newBooking(valueobject.BookingStatusRequested)
	assert.True(t, apperror.IsForbidden(b.Transition(operator, ownerID, valueobject.BookingStatusAccepted)))
	assert.NoError(t, b.Transition(operator, ownerID, valueobject.BookingStatusCancelled))

	b = newBooking(valueobject.BookingStatusCountered)
	assert.True(t, apperror.IsForbidden(b.Transition(stranger, ownerID, valueobject.BookingStatusCancelled)))
	assert.NoError(t, b.Transition(admin, ownerID, valueobject.BookingStatusAccepted))

	b = newBooking(valueobject.BookingStatusCountered)
	assert.ErrorIs(t, b.Transition(owner, ownerID, valueobject.BookingStatusRequested), apperror.ErrInvalidTransition)
	assert.ErrorIs(t, b.Transition(owner, ownerID, valueobject.BookingStatusCountered), apperror.ErrInvalidTransition)
}

func TestBookingTransition_TerminalIsImmutable(t *testing.T) {
	ownerID := uuid.New()
	operatorID := uuid.New()
	actors := []entity.Actor{
		{ID: ownerID, Role: valueobject.RoleOwner},
		{ID: operatorID, Role: valueobject.RoleOperator},
		{ID: uuid.New(), Role: valueobject.RoleAdmin},
	}
	targets := []valueobject.BookingStatus{
		valueobject.BookingStatusRequested,
		valueobject.BookingStatusCountered,
		valueobject.BookingStatusAccepted,
		valueobject.BookingStatusCancelled,
	}

	for _, terminal := range []valueobject.BookingStatus{valueobject.BookingStatusAccepted, valueobject.BookingStatusCancelled} {
		for _, actor := range actors {
			for _, target := range targets {
				b := &entity.Booking{ID: uuid.New(), OperatorID: operatorID, Status: terminal}
				err := b.Transition(actor, ownerID, target)
				assert.ErrorIs(t, err, apperror.ErrImmutableState)
				assert.Equal(t, terminal, b.Status)
			}
		}
	}
}

func TestBookingMergeTerms(t *testing.T) {
	ownerID := uuid.New()
	operatorID := uuid.New()
	b := &entity.Booking{ID: uuid.New(), OperatorID: operatorID, Status: valueobject.BookingStatusRequested, Terms: validTerms()}

	route := "Lagos - Bonny"
	crew := 12
	clauses := []string{"Fuel at charterer's cost"}
	changes, err := b.MergeTerms(entity.Actor{ID: ownerID}, ownerID, entity.TermsPatch{
		Route:         &route,
		EstimatedCrew: &crew,
		CustomClauses: &clauses,
	})
	require.NoError(t, err)
	assert.Len(t, changes, 3)
	assert.Equal(t, route, *b.Terms.Route)
	assert.Equal(t, 12, *b.Terms.EstimatedCrew)

	changes, err = b.MergeTerms(entity.Actor{ID: operatorID}, ownerID, entity.TermsPatch{Route: &route})
	require.NoError(t, err)
	assert.Empty(t, changes)

	short := "tiny"
	_, err = b.MergeTerms(entity.Actor{ID: operatorID}, ownerID, entity.TermsPatch{Purpose: &short})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, validTerms().Purpose, b.Terms.Purpose)

	_, err = b.MergeTerms(entity.Actor{ID: uuid.New()}, ownerID, entity.TermsPatch{Route: &route})
	assert.True(t, apperror.IsForbidden(err))

	b.Status = valueobject.BookingStatusAccepted
	_, err = b.MergeTerms(entity.Actor{ID: ownerID}, ownerID, entity.TermsPatch{Route: &short})
	assert.ErrorIs(t, err, apperror.ErrImmutableState)
}
