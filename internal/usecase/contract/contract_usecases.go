package contract

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/vessel-charter/internal/domain/entity"
	"github.com/ignatzorin/vessel-charter/internal/domain/repository"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
	"github.com/ignatzorin/vessel-charter/internal/logger"
	"github.com/ignatzorin/vessel-charter/internal/pkg/apperror"
	"github.com/ignatzorin/vessel-charter/internal/usecase/shared"
)

const (
	EventContractCreated       = "contract.created"
	EventContractSigned        = "contract.signed"
	EventContractFullySigned   = "contract.fully_signed"
	EventContractDocumentReady = "contract.document_ready"
)

// Dispatcher запускает фоновые задачи вне запроса.
type Dispatcher interface {
	SafeGoWithContext(task string, fn func(context.Context))
}

// ContractView содержит контракт с вычисленным статусом подписания.
type ContractView struct {
	Contract   *entity.Contract
	Status     valueobject.ContractStatus
	OwnerID    uuid.UUID
	OperatorID uuid.UUID
}

type CreateContractUseCase struct {
	bookingRepo  repository.BookingRepository
	vesselRepo   repository.VesselRepository
	contractRepo repository.ContractRepository
	parties      repository.PartyDirectory
	renderer     repository.DocumentRenderer
	store        repository.DocumentStore
	dispatcher   Dispatcher
	announcer    *shared.Announcer
}

func NewCreateContractUseCase(
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
	contractRepo repository.ContractRepository,
	parties repository.PartyDirectory,
	renderer repository.DocumentRenderer,
	store repository.DocumentStore,
	dispatcher Dispatcher,
	announcer *shared.Announcer,
) *CreateContractUseCase {
	return &CreateContractUseCase{
		bookingRepo:  bookingRepo,
		vesselRepo:   vesselRepo,
		contractRepo: contractRepo,
		parties:      parties,
		renderer:     renderer,
		store:        store,
		dispatcher:   dispatcher,
		announcer:    announcer,
	}
}

// Execute создаёт контракт по принятой брони. PDF рендерится в фоне после коммита,
// ответ клиенту не ждёт рендеринга.
func (uc *CreateContractUseCase) Execute(ctx context.Context, actor entity.Actor, bookingID uuid.UUID) (*ContractView, error) {
	booking, err := uc.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	vessel, err := uc.vesselRepo.FindByID(ctx, booking.VesselID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.contractRepo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.ErrContractExists
	}
	if booking.Status != valueobject.BookingStatusAccepted {
		return nil, apperror.ErrNotAccepted
	}
	if !actor.IsAdmin() && !booking.IsParty(actor.ID, vessel.OwnerID) {
		return nil, apperror.ErrForbidden
	}

	owner, err := uc.parties.FindParty(ctx, vessel.OwnerID)
	if err != nil {
		return nil, err
	}
	operator, err := uc.parties.FindParty(ctx, booking.OperatorID)
	if err != nil {
		return nil, err
	}

	terms, err := entity.GenerateTerms(booking, vessel, owner, operator)
	if err != nil {
		return nil, err
	}
	contract, err := entity.NewContract(booking, terms)
	if err != nil {
		return nil, err
	}
	if err := uc.contractRepo.Create(ctx, contract); err != nil {
		return nil, err
	}

	snapshot := *contract
	uc.dispatcher.SafeGoWithContext("render_contract", func(ctx context.Context) {
		uc.renderDocument(ctx, &snapshot)
	})
	uc.announcer.Announce(ctx, EventContractCreated, contractEvent(contract, vessel.OwnerID, booking.OperatorID), vessel.OwnerID, booking.OperatorID)

	return &ContractView{
		Contract:   contract,
		Status:     contract.Status(vessel.OwnerID, booking.OperatorID),
		OwnerID:    vessel.OwnerID,
		OperatorID: booking.OperatorID,
	}, nil
}

// renderDocument не возвращает ошибку: контракт уже создан, сбой рендеринга только логируется.
func (uc *CreateContractUseCase) renderDocument(ctx context.Context, contract *entity.Contract) {
	log := logger.L().WithFields(logrus.Fields{
		"contract_id": contract.ID.String(),
		"booking_id":  contract.BookingID.String(),
	})

	doc, err := uc.renderer.Render(ctx, contract.Terms)
	if err != nil {
		log.WithError(err).Error("не удалось сформировать документ контракта")
		return
	}
	url, err := uc.store.Save(ctx, contract.ID, doc)
	if err != nil {
		log.WithError(err).Error("не удалось сохранить документ контракта")
		return
	}
	if err := uc.contractRepo.AttachDocument(ctx, contract.ID, url, doc.Hash); err != nil {
		log.WithError(err).Error("не удалось привязать документ к контракту")
		return
	}

	log.WithField("pdf_url", url).Info("документ контракта готов")
	contract.AttachDocument(url, doc.Hash)
	uc.announcer.Announce(ctx, EventContractDocumentReady,
		contractEvent(contract, contract.Terms.Owner.ID, contract.Terms.Operator.ID),
		contract.Terms.Owner.ID, contract.Terms.Operator.ID)
}

type SignContractUseCase struct {
	contractRepo repository.ContractRepository
	bookingRepo  repository.BookingRepository
	vesselRepo   repository.VesselRepository
	announcer    *shared.Announcer
}

func NewSignContractUseCase(
	contractRepo repository.ContractRepository,
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
	announcer *shared.Announcer,
) *SignContractUseCase {
	return &SignContractUseCase{
		contractRepo: contractRepo,
		bookingRepo:  bookingRepo,
		vesselRepo:   vesselRepo,
		announcer:    announcer,
	}
}

// Execute идемпотентно записывает подпись. Подписывать могут только владелец и оператор,
// администратор не может.
func (uc *SignContractUseCase) Execute(ctx context.Context, actor entity.Actor, contractID uuid.UUID) (*ContractView, error) {
	contract, ownerID, operatorID, err := loadParties(ctx, uc.contractRepo, uc.bookingRepo, uc.vesselRepo, contractID)
	if err != nil {
		return nil, err
	}
	if actor.ID != ownerID && actor.ID != operatorID {
		return nil, apperror.ErrForbidden
	}

	wasFullySigned := contract.IsFullySigned(ownerID, operatorID)
	alreadySigned := contract.HasSigned(actor.ID)

	contract, err = uc.contractRepo.AddSignature(ctx, contractID, actor.ID, ownerID, operatorID)
	if err != nil {
		return nil, err
	}

	if !alreadySigned {
		payload := contractEvent(contract, ownerID, operatorID)
		uc.announcer.Announce(ctx, EventContractSigned, payload, ownerID, operatorID)
		if !wasFullySigned && contract.IsFullySigned(ownerID, operatorID) {
			uc.announcer.Announce(ctx, EventContractFullySigned, payload, ownerID, operatorID)
		}
	}

	return &ContractView{
		Contract:   contract,
		Status:     contract.Status(ownerID, operatorID),
		OwnerID:    ownerID,
		OperatorID: operatorID,
	}, nil
}

type GetContractUseCase struct {
	contractRepo repository.ContractRepository
	bookingRepo  repository.BookingRepository
	vesselRepo   repository.VesselRepository
}

func NewGetContractUseCase(
	contractRepo repository.ContractRepository,
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
) *GetContractUseCase {
	return &GetContractUseCase{
		contractRepo: contractRepo,
		bookingRepo:  bookingRepo,
		vesselRepo:   vesselRepo,
	}
}

// Execute пересчитывает статус подписания при каждом чтении.
func (uc *GetContractUseCase) Execute(ctx context.Context, actor entity.Actor, contractID uuid.UUID) (*ContractView, error) {
	contract, ownerID, operatorID, err := loadParties(ctx, uc.contractRepo, uc.bookingRepo, uc.vesselRepo, contractID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != ownerID && actor.ID != operatorID {
		return nil, apperror.ErrForbidden
	}
	return &ContractView{
		Contract:   contract,
		Status:     contract.Status(ownerID, operatorID),
		OwnerID:    ownerID,
		OperatorID: operatorID,
	}, nil
}

func loadParties(
	ctx context.Context,
	contractRepo repository.ContractRepository,
	bookingRepo repository.BookingRepository,
	vesselRepo repository.VesselRepository,
	contractID uuid.UUID,
) (*entity.Contract, uuid.UUID, uuid.UUID, error) {
	contract, err := contractRepo.FindByID(ctx, contractID)
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}
	booking, err := bookingRepo.FindByID(ctx, contract.BookingID)
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}
	vessel, err := vesselRepo.FindByID(ctx, booking.VesselID)
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}
	return contract, vessel.OwnerID, booking.OperatorID, nil
}

type contractEventPayload struct {
	ContractID uuid.UUID   `json:"contract_id"`
	BookingID  uuid.UUID   `json:"booking_id"`
	Status     string      `json:"status"`
	SignerIDs  []uuid.UUID `json:"signer_ids"`
	PDFURL     *string     `json:"pdf_url,omitempty"`
}

func contractEvent(c *entity.Contract, ownerID, operatorID uuid.UUID) contractEventPayload {
	return contractEventPayload{
		ContractID: c.ID,
		BookingID:  c.BookingID,
		Status:     string(c.Status(ownerID, operatorID)),
		SignerIDs:  c.SignerIDs,
		PDFURL:     c.PDFURL,
	}
}
