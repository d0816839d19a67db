package domain

import "time"

// Change types are free-form labels; these are the ones the writers use.
// The stored literals are the original product vocabulary.
const (
	ChangeProjectCreated = "Proyecto creado"
	ChangeStatus         = "Cambio de estado"
	ChangeAnalyst        = "Cambio de QA"
	ChangeDevelopers     = "Actualización de desarrolladores"
	ChangeAssets         = "Actualización de insumos"
	ChangeDefectReported = "Defecto reportado"
	ChangeDefectStatus   = "Cambio de estado de defecto"
	ChangeDefectDeleted  = "Defecto eliminado"
)

// UnassignedLabel stands in for a null analyst reference in change records.
const UnassignedLabel = "Sin asignar"

// Change is one semantic difference worth recording. Empty values are
// stored as NULL.
type Change struct {
	Type     string
	OldValue string
	NewValue string
}

// Entry is an immutable audit row. It is only ever inserted inside the
// same unit of work as the mutation it describes, and never updated or
// deleted afterwards.
type Entry struct {
	ID        int64
	ProjectID int64
	ChangedBy int64
	Type      string
	OldValue  string
	NewValue  string
	Timestamp time.Time
}

// Actor is the denormalized changer attached to entries on reads.
type Actor struct {
	ID       int64
	FullName string
	Email    string
	Role     string
}

// EntryWithActor is the read-side shape, ordered newest first.
type EntryWithActor struct {
	Entry
	Actor Actor
}
