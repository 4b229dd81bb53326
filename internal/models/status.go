package models

import "strings"

// Status is the single source of truth for where a service request sits in
// its workflow.
type Status string

const (
	StatusPending          Status = "pending"
	StatusUrgent           Status = "urgent"
	StatusDelegated        Status = "delegated"
	StatusRefusedByManager Status = "refused_by_manager"
	StatusApproved         Status = "approved"
	StatusInProgress       Status = "in_progress"
	StatusCompleted        Status = "completed"
	StatusRejected         Status = "rejected"
	StatusCancelled        Status = "cancelled"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusPending,
	StatusUrgent,
	StatusDelegated,
	StatusRefusedByManager,
	StatusApproved,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
	StatusCancelled,
}

var statusLabels = map[Status]string{
	StatusPending:          "Pendente",
	StatusUrgent:           "Urgente",
	StatusDelegated:        "Aguardando Resposta",
	StatusRefusedByManager: "Recusada",
	StatusApproved:         "Aprovado",
	StatusInProgress:       "Em Andamento",
	StatusCompleted:        "Concluído",
	StatusRejected:         "Rejeitado",
	StatusCancelled:        "Cancelado",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) Label() string {
	return statusLabels[s]
}

// IsTerminal reports whether no transition can leave s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

// IsPendingFamily reports whether s is still waiting on a first human decision,
// which is when elapsed-time escalation applies.
func (s Status) IsPendingFamily() bool {
	return s == StatusPending || s == StatusUrgent
}

// Editable reports whether mutable request fields may still change: every
// status up to and including approved.
func (s Status) Editable() bool {
	switch s {
	case StatusPending, StatusUrgent, StatusDelegated, StatusRefusedByManager, StatusApproved:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	return s, s.Valid()
}

type Area string

const (
	AreaNorte  Area = "norte"
	AreaSul    Area = "sul"
	AreaLeste  Area = "leste"
	AreaOeste  Area = "oeste"
	AreaCentro Area = "centro"
)

var Areas = []Area{AreaNorte, AreaSul, AreaLeste, AreaOeste, AreaCentro}

func (a Area) Valid() bool {
	switch a {
	case AreaNorte, AreaSul, AreaLeste, AreaOeste, AreaCentro:
		return true
	}
	return false
}

func ParseArea(raw string) (Area, bool) {
	a := Area(strings.ToLower(strings.TrimSpace(raw)))
	return a, a.Valid()
}
