package models

import (
	"fmt"
	"time"
)

// StageStatus is the review lifecycle state of a stage record.
type StageStatus string

const (
	StatusPending  StageStatus = "pending"
	StatusApproved StageStatus = "approved"
	StatusRejected StageStatus = "rejected"
)

// Valid reports whether the status belongs to the closed enumeration.
func (s StageStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether the status is absorbing: only pending stages may
// transition, and only to approved or rejected.
func (s StageStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// The remote API speaks French on the wire.
const (
	wirePending  = "en_attente"
	wireApproved = "valide"
	wireRejected = "refuse"
)

// StatusFromWire translates a wire status value into the enumeration.
func StatusFromWire(raw string) (StageStatus, error) {
	switch raw {
	case wirePending:
		return StatusPending, nil
	case wireApproved:
		return StatusApproved, nil
	case wireRejected:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("unknown stage status %q", raw)
	}
}

// Wire returns the on-the-wire representation of the status.
func (s StageStatus) Wire() string {
	switch s {
	case StatusApproved:
		return wireApproved
	case StatusRejected:
		return wireRejected
	default:
		return wirePending
	}
}

// Stage is an internship declaration record. The server owns the record; the
// client only ever holds a cached, possibly stale copy.
type Stage struct {
	ID          int
	StudentID   int
	StudentName string
	Company     string
	Subject     string
	StartDate   time.Time
	EndDate     time.Time
	DeclaredAt  time.Time
	Status      StageStatus
}

// StageDraft is a student's submission before the server assigns identity,
// status and declaration time. Dates use the YYYY-MM-DD wire format.
type StageDraft struct {
	StudentID int    `json:"id_etudiant" validate:"required"`
	Company   string `json:"entreprise" validate:"required"`
	Subject   string `json:"sujet" validate:"required"`
	StartDate string `json:"date_debut" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"date_fin" validate:"required,datetime=2006-01-02"`
}

// Stats holds the aggregate stage counters reported by the server.
type Stats struct {
	Pending  int `json:"en_attente"`
	Approved int `json:"valide"`
	Rejected int `json:"refuse"`
	Total    int `json:"total"`
}

// StatsReport combines the counters with the most recent declarations.
type StatsReport struct {
	Stats  Stats
	Recent []Stage
}

// Student is the minimal identity the admin view lists.
type Student struct {
	ID    int    `json:"id"`
	Name  string `json:"nom"`
	Email string `json:"email"`
}
