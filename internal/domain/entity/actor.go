package entity

import "github.com/google/uuid"

// Actor is the already-authenticated caller of a core operation. It is passed
// explicitly into every mutating usecase method.
type Actor struct {
	ID   uuid.UUID
	Role string
}

// SystemActor drives background transitions such as the no-show sweep.
var SystemActor = Actor{Role: RoleSystem}

func NewAdmin(id uuid.UUID) Actor   { return Actor{ID: id, Role: RoleAdmin} }
func NewDoctor(id uuid.UUID) Actor  { return Actor{ID: id, Role: RoleDoctor} }
func NewPatient(id uuid.UUID) Actor { return Actor{ID: id, Role: RolePatient} }

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// AuditID returns the id recorded in audit entries; nil for the system actor.
func (a Actor) AuditID() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}
