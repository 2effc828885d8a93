package entity

import (
	"time"

	"github.com/google/uuid"
)

// NegotiationEntry: запись журнала переговоров. Seq назначается хранилищем
// и монотонно растёт в пределах брони; записи никогда не редактируются.
type NegotiationEntry struct {
	BookingID uuid.UUID
	Seq       int64
	UpdatedBy uuid.UUID
	UpdatedAt time.Time
	Note      string
	Changes   map[string]FieldChange
}

func NewNegotiationEntry(bookingID, updatedBy uuid.UUID, note string, changes map[string]FieldChange) *NegotiationEntry {
	if changes == nil {
		changes = map[string]FieldChange{}
	}
	return &NegotiationEntry{
		BookingID: bookingID,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now().UTC(),
		Note:      note,
		Changes:   changes,
	}
}
