// Package accounts stores the users table and the per-role profiles.
package accounts

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound            = errors.New("accounts: not found")
	ErrMissingID           = errors.New("accounts: id required")
	ErrInvalidRole         = errors.New("accounts: invalid role")
	ErrInvalidVerification = errors.New("accounts: invalid verification status")
)

// Role of an account.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// ParseRole normalizes r, defaulting to patient when empty.
func ParseRole(r string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(r))) {
	case "", RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	}
	return "", ErrInvalidRole
}

// VerificationStatus of a doctor's submitted documents.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// Valid reports whether v is a known status.
func (v VerificationStatus) Valid() bool {
	return v == VerificationPending || v == VerificationApproved || v == VerificationRejected
}

// Account is a row of the users table.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// PatientProfile is a row of the patients table.
type PatientProfile struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// DoctorProfile is a row of the doctors table.
type DoctorProfile struct {
	ID                 string             `json:"id"`
	FirstName          string             `json:"first_name"`
	LastName           string             `json:"last_name"`
	Phone              string             `json:"phone"`
	Email              string             `json:"email"`
	Specialty          string             `json:"specialty"`
	LicenseNumber      string             `json:"license_number"`
	TitlePath          string             `json:"titulo_url,omitempty"`
	IDCardPath         string             `json:"cedula_url,omitempty"`
	LicensePath        string             `json:"certificado_url,omitempty"`
	VerificationStatus VerificationStatus `json:"status"`
}

// FullName joins first and last names, or returns "" when both are blank.
func FullName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
