// Package entity defines the registry records: businesses and gangs that pass
// through review, and contracts between them.
package entity

import (
	"strings"

	apperrors "github.com/louisbranch/roleplay-registry/internal/platform/errors"
)

// Kind identifies one record collection.
type Kind string

const (
	KindBusiness Kind = "business"
	KindGang     Kind = "gang"
	KindContract Kind = "contract"
)

// Kinds lists every kind in lock-acquisition order.
var Kinds = []Kind{KindBusiness, KindGang, KindContract}

// Collection returns the persisted collection name for the kind.
func (k Kind) Collection() string {
	switch k {
	case KindBusiness:
		return "businesses"
	case KindGang:
		return "gangs"
	case KindContract:
		return "contracts"
	default:
		return ""
	}
}

// HolderKey returns the persisted field name of the registration holder.
func (k Kind) HolderKey() string {
	switch k {
	case KindBusiness:
		return "owner"
	case KindGang:
		return "leader"
	default:
		return ""
	}
}

// Approvable reports whether records of this kind go through review.
func (k Kind) Approvable() bool {
	return k == KindBusiness || k == KindGang
}

// Status is the lifecycle state of a record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusActive   Status = "active"
)

// ParseStatus normalizes a registration status label.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusDenied:
		return StatusDenied, true
	default:
		return "", false
	}
}

var (
	// ErrEmptyName indicates a missing registration or reference name.
	ErrEmptyName = apperrors.WithMetadata(apperrors.CodeValidationFailed, "name is required", map[string]string{"Field": "name"})
	// ErrEmptyHolder indicates a registration without an owner or leader.
	ErrEmptyHolder = apperrors.WithMetadata(apperrors.CodeValidationFailed, "holder is required", map[string]string{"Field": "holder"})
	// ErrEmptyReason indicates a denial without a reason.
	ErrEmptyReason = apperrors.WithMetadata(apperrors.CodeValidationFailed, "reason is required", map[string]string{"Field": "reason"})
	// ErrInvalidStatus indicates a status outside the registration lifecycle.
	ErrInvalidStatus = apperrors.WithMetadata(apperrors.CodeValidationFailed, "status is invalid", map[string]string{"Field": "status"})
	// ErrEmptyBusiness indicates a contract without a business name.
	ErrEmptyBusiness = apperrors.WithMetadata(apperrors.CodeValidationFailed, "business is required", map[string]string{"Field": "business"})
	// ErrEmptyGang indicates a contract without a gang name.
	ErrEmptyGang = apperrors.WithMetadata(apperrors.CodeValidationFailed, "gang is required", map[string]string{"Field": "gang"})
	// ErrEmptyTerms indicates a contract without terms.
	ErrEmptyTerms = apperrors.WithMetadata(apperrors.CodeValidationFailed, "terms are required", map[string]string{"Field": "terms"})
	// ErrEmptyPatch indicates an update that changes nothing.
	ErrEmptyPatch = apperrors.WithMetadata(apperrors.CodeValidationFailed, "patch is empty", map[string]string{"Field": "patch"})
)

// Registration is a business or gang record. Holder is the owner of a
// business or the leader of a gang.
type Registration struct {
	ID     int
	Name   string
	Holder string
	Status Status
	Reason string
}

// RecordID implements Record.
func (r Registration) RecordID() int { return r.ID }

// NewRegistration validates input for a fresh pending registration.
func NewRegistration(name, holder string) (Registration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Registration{}, ErrEmptyName
	}
	holder = strings.TrimSpace(holder)
	if holder == "" {
		return Registration{}, ErrEmptyHolder
	}
	return Registration{Name: name, Holder: holder, Status: StatusPending}, nil
}

// Approve moves the registration to approved and drops any denial reason.
func (r Registration) Approve() Registration {
	r.Status = StatusApproved
	r.Reason = ""
	return r
}

// Deny moves the registration to denied with the given reason.
func (r Registration) Deny(reason string) (Registration, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return r, ErrEmptyReason
	}
	r.Status = StatusDenied
	r.Reason = reason
	return r, nil
}

// Contract is an agreement between a business and a gang, referenced by name.
type Contract struct {
	ID       int
	Business string
	Gang     string
	Terms    string
	Status   Status
}

// RecordID implements Record.
func (c Contract) RecordID() int { return c.ID }

// NewContract validates input for a fresh active contract.
func NewContract(business, gang, terms string) (Contract, error) {
	business = strings.TrimSpace(business)
	if business == "" {
		return Contract{}, ErrEmptyBusiness
	}
	gang = strings.TrimSpace(gang)
	if gang == "" {
		return Contract{}, ErrEmptyGang
	}
	terms = strings.TrimSpace(terms)
	if terms == "" {
		return Contract{}, ErrEmptyTerms
	}
	return Contract{Business: business, Gang: gang, Terms: terms, Status: StatusActive}, nil
}

// Names reports whether the contract references the named registration of kind.
func (c Contract) Names(kind Kind, name string) bool {
	switch kind {
	case KindBusiness:
		return strings.EqualFold(c.Business, name)
	case KindGang:
		return strings.EqualFold(c.Gang, name)
	default:
		return false
	}
}
