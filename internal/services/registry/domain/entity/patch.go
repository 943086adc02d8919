package entity

import "strings"

// RegistrationPatch carries optional registration changes. A nil field is
// left untouched.
type RegistrationPatch struct {
	Name   *string
	Status *Status
	Reason *string
}

// Empty reports whether the patch changes nothing.
func (p RegistrationPatch) Empty() bool {
	return p.Name == nil && p.Status == nil && p.Reason == nil
}

// Apply returns r with the patch applied. A denied result must carry a
// reason; any other status drops it.
func (p RegistrationPatch) Apply(r Registration) (Registration, error) {
	if p.Empty() {
		return r, ErrEmptyPatch
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return r, ErrEmptyName
		}
		r.Name = name
	}
	if p.Status != nil {
		status, ok := ParseStatus(string(*p.Status))
		if !ok {
			return r, ErrInvalidStatus
		}
		r.Status = status
	}
	if p.Reason != nil {
		r.Reason = strings.TrimSpace(*p.Reason)
	}
	if r.Status != StatusDenied {
		r.Reason = ""
		return r, nil
	}
	if r.Reason == "" {
		return r, ErrEmptyReason
	}
	return r, nil
}

// ContractPatch carries optional contract changes.
type ContractPatch struct {
	Business *string
	Gang     *string
	Terms    *string
}

// Empty reports whether the patch changes nothing.
func (p ContractPatch) Empty() bool {
	return p.Business == nil && p.Gang == nil && p.Terms == nil
}

// Apply returns c with the patch applied.
func (p ContractPatch) Apply(c Contract) (Contract, error) {
	if p.Empty() {
		return c, ErrEmptyPatch
	}
	if p.Business != nil {
		business := strings.TrimSpace(*p.Business)
		if business == "" {
			return c, ErrEmptyBusiness
		}
		c.Business = business
	}
	if p.Gang != nil {
		gang := strings.TrimSpace(*p.Gang)
		if gang == "" {
			return c, ErrEmptyGang
		}
		c.Gang = gang
	}
	if p.Terms != nil {
		terms := strings.TrimSpace(*p.Terms)
		if terms == "" {
			return c, ErrEmptyTerms
		}
		c.Terms = terms
	}
	return c, nil
}
