package entity

import (
	"github.com/google/uuid"
	"github.com/ignatzorin/vessel-charter/internal/domain/valueobject"
)

// Actor: аутентифицированный участник запроса (из identity-провайдера).
type Actor struct {
	ID    uuid.UUID
	Role  valueobject.Role
	Email string
}

func (a Actor) IsAdmin() bool {
	return a.Role == valueobject.RoleAdmin
}
