// Package usecasetest содержит in-memory реализации репозиториев для тестов usecase-слоя.
package usecasetest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
)

// Store: общее хранилище; один мьютекс имитирует транзакционную изоляцию.
type Store struct {
	mu        sync.Mutex
	vessels   map[uuid.UUID]*entity.Vessel
	bookings  map[uuid.UUID]*entity.Booking
	history   map[uuid.UUID][]*entity.NegotiationEntry
	contracts map[uuid.UUID]*entity.Contract
	escrows   map[uuid.UUID]*entity.EscrowTransaction
	parties   map[uuid.UUID]entity.Party
}

func NewStore() *Store {
	return &Store{
		vessels:   make(map[uuid.UUID]*entity.Vessel),
		bookings:  make(map[uuid.UUID]*entity.Booking),
		history:   make(map[uuid.UUID][]*entity.NegotiationEntry),
		contracts: make(map[uuid.UUID]*entity.Contract),
		escrows:   make(map[uuid.UUID]*entity.EscrowTransaction),
		parties:   make(map[uuid.UUID]entity.Party),
	}
}

func (s *Store) Vessels() *VesselRepository     { return &VesselRepository{s} }
func (s *Store) Bookings() *BookingRepository   { return &BookingRepository{s} }
func (s *Store) Contracts() *ContractRepository { return &ContractRepository{s} }
func (s *Store) Escrows() *EscrowRepository     { return &EscrowRepository{s} }
func (s *Store) Parties() *PartyDirectory       { return &PartyDirectory{s} }

// AddParty регистрирует участника в справочнике.
func (s *Store) AddParty(p entity.Party) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[p.ID] = p
}

type VesselRepository struct{ s *Store }

var _ repository.VesselRepository = (*VesselRepository)(nil)

func (r *VesselRepository) Create(_ context.Context, v *entity.Vessel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *v
	r.s.vessels[v.ID] = &cp
	return nil
}

func (r *VesselRepository) UpdateStatus(_ context.Context, v *entity.Vessel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.vessels[v.ID]
	if !ok {
		return apperror.ErrVesselNotFound
	}
	stored.Status = v.Status
	stored.UpdatedAt = v.UpdatedAt
	return nil
}

func (r *VesselRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Vessel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.vessel(id)
}

func (r *VesselRepository) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*entity.Vessel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*entity.Vessel
	for id, v := range r.s.vessels {
		if v.OwnerID == ownerID {
			cp, _ := r.s.vessel(id)
			result = append(result, cp)
		}
	}
	return result, nil
}

func (r *VesselRepository) AddSlot(_ context.Context, slot *entity.AvailabilitySlot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vessels[slot.VesselID]
	if !ok {
		return apperror.ErrVesselNotFound
	}
	v.Slots = append(v.Slots, *slot)
	return nil
}

func (r *VesselRepository) DeleteSlot(_ context.Context, vesselID, slotID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vessels[vesselID]
	if !ok {
		return apperror.ErrVesselNotFound
	}
	for i, slot := range v.Slots {
		if slot.ID == slotID {
			v.Slots = append(v.Slots[:i:i], v.Slots[i+1:]...)
			return nil
		}
	}
	return apperror.ErrSlotNotFound
}

func (s *Store) vessel(id uuid.UUID) (*entity.Vessel, error) {
	v, ok := s.vessels[id]
	if !ok {
		return nil, apperror.ErrVesselNotFound
	}
	cp := *v
	cp.Slots = append([]entity.AvailabilitySlot(nil), v.Slots...)
	return &cp, nil
}

type BookingRepository struct{ s *Store }

var _ repository.BookingRepository = (*BookingRepository)(nil)

func (r *BookingRepository) CreateExclusive(_ context.Context, vesselID uuid.UUID, admit repository.AdmitFunc) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	vessel, err := r.s.vessel(vesselID)
	if err != nil {
		return nil, err
	}
	var active []*entity.Booking
	for _, b := range r.s.bookings {
		if b.VesselID == vesselID && b.Status.IsActive() {
			cp := *b
			active = append(active, &cp)
		}
	}

	booking, err := admit(vessel, active)
	if err != nil {
		return nil, err
	}
	cp := *booking
	r.s.bookings[booking.ID] = &cp
	return booking, nil
}

func (r *BookingRepository) Save(_ context.Context, b *entity.Booking, expectedVersion int64, entry *entity.NegotiationEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.bookings[b.ID]
	if !ok {
		return apperror.ErrBookingNotFound
	}
	if stored.Version != expectedVersion {
		return apperror.ErrConcurrencyConflict
	}
	b.Version = expectedVersion + 1
	cp := *b
	r.s.bookings[b.ID] = &cp

	if entry != nil {
		entry.Seq = int64(len(r.s.history[b.ID]) + 1)
		r.s.history[b.ID] = append(r.s.history[b.ID], entry)
	}
	return nil
}

func (r *BookingRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, apperror.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *BookingRepository) FindByOperatorID(_ context.Context, operatorID uuid.UUID) ([]*entity.Booking, error) {
	return r.filter(func(b *entity.Booking) bool { return b.OperatorID == operatorID }), nil
}

func (r *BookingRepository) FindByVesselID(_ context.Context, vesselID uuid.UUID) ([]*entity.Booking, error) {
	return r.filter(func(b *entity.Booking) bool { return b.VesselID == vesselID }), nil
}

func (r *BookingRepository) History(_ context.Context, bookingID uuid.UUID) ([]*entity.NegotiationEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*entity.NegotiationEntry(nil), r.s.history[bookingID]...), nil
}

func (r *BookingRepository) filter(match func(*entity.Booking) bool) []*entity.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []*entity.Booking
	for _, b := range r.s.bookings {
		if match(b) {
			cp := *b
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result
}

// SetStatus меняет статус в обход доменных правил, имитируя параллельную запись.
func (r *BookingRepository) SetStatus(id uuid.UUID, status valueobject.BookingStatus) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.bookings[id]; ok {
		b.Status = status
		b.Version++
	}
}

type ContractRepository struct{ s *Store }

var _ repository.ContractRepository = (*ContractRepository)(nil)

func (r *ContractRepository) Create(_ context.Context, c *entity.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.contracts {
		if existing.BookingID == c.BookingID {
			return apperror.ErrContractExists
		}
	}
	r.s.contracts[c.ID] = copyContract(c)
	return nil
}

func (r *ContractRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[id]
	if !ok {
		return nil, apperror.ErrContractNotFound
	}
	return copyContract(c), nil
}

func (r *ContractRepository) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.contracts {
		if c.BookingID == bookingID {
			return copyContract(c), nil
		}
	}
	return nil, nil
}

func (r *ContractRepository) AddSignature(_ context.Context, contractID, signerID, ownerID, operatorID uuid.UUID) (*entity.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[contractID]
	if !ok {
		return nil, apperror.ErrContractNotFound
	}
	if c.AddSigner(signerID) && c.SignedAt == nil && c.IsFullySigned(ownerID, operatorID) {
		signedAt := c.UpdatedAt
		c.SignedAt = &signedAt
	}
	return copyContract(c), nil
}

func (r *ContractRepository) AttachDocument(_ context.Context, contractID uuid.UUID, url, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contracts[contractID]
	if !ok {
		return apperror.ErrContractNotFound
	}
	c.AttachDocument(url, hash)
	return nil
}

func copyContract(c *entity.Contract) *entity.Contract {
	cp := *c
	cp.SignerIDs = append([]uuid.UUID{}, c.SignerIDs...)
	return &cp
}

type EscrowRepository struct{ s *Store }

var _ repository.EscrowRepository = (*EscrowRepository)(nil)

func (r *EscrowRepository) Create(_ context.Context, tx *entity.EscrowTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.escrows {
		if existing.BookingID == tx.BookingID {
			return apperror.ErrEscrowExists
		}
	}
	r.s.escrows[tx.ID] = copyEscrow(tx)
	return nil
}

func (r *EscrowRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.EscrowTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.escrows[id]
	if !ok {
		return nil, apperror.ErrEscrowNotFound
	}
	return copyEscrow(tx), nil
}

func (r *EscrowRepository) FindByReference(_ context.Context, reference string) (*entity.EscrowTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.escrows {
		if tx.Reference == reference {
			return copyEscrow(tx), nil
		}
	}
	return nil, apperror.ErrEscrowNotFound
}

func (r *EscrowRepository) FindByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.EscrowTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.escrows {
		if tx.BookingID == bookingID {
			return copyEscrow(tx), nil
		}
	}
	return nil, nil
}

func (r *EscrowRepository) Mutate(_ context.Context, id uuid.UUID, mutate repository.MutateFunc) (*entity.EscrowTransaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.escrows[id]
	if !ok {
		return nil, apperror.ErrEscrowNotFound
	}
	working := copyEscrow(stored)
	if _, err := mutate(working); err != nil {
		return nil, err
	}
	r.s.escrows[id] = copyEscrow(working)
	return working, nil
}

// SetEscrowStatus переводит escrow в статус напрямую, без журнала.
func (r *EscrowRepository) SetEscrowStatus(id uuid.UUID, status valueobject.EscrowStatus) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tx, ok := r.s.escrows[id]; ok {
		tx.Status = status
	}
}

func copyEscrow(tx *entity.EscrowTransaction) *entity.EscrowTransaction {
	cp := *tx
	cp.Events = append([]entity.EscrowEvent(nil), tx.Events...)
	return &cp
}

type PartyDirectory struct{ s *Store }

var _ repository.PartyDirectory = (*PartyDirectory)(nil)

func (d *PartyDirectory) FindParty(_ context.Context, id uuid.UUID) (entity.Party, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if p, ok := d.s.parties[id]; ok {
		return p, nil
	}
	return entity.Party{ID: id}, nil
}
