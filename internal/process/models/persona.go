package models

import (
	dErrors "clarity/pkg/domain-errors"
)

// PersonaType is the capacity in which the user is acting.
type PersonaType string

const (
	PersonaSelf      PersonaType = "self"
	PersonaParent    PersonaType = "parent"
	PersonaCaregiver PersonaType = "caregiver"
	PersonaProxy     PersonaType = "proxy"
)

// ParsePersonaType validates a persona type string.
func ParsePersonaType(s string) (PersonaType, error) {
	t := PersonaType(s)
	switch t {
	case PersonaSelf, PersonaParent, PersonaCaregiver, PersonaProxy:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "invalid persona type: "+s)
}

// Persona governs the authorization risk check.
type Persona struct {
	Type         PersonaType `json:"type"`
	Name         string      `json:"name"`
	Relationship string      `json:"relationship,omitempty"`
	Authorized   bool        `json:"authorized"`
}

// NeedsAuthorization reports a non-self persona acting without authorization.
func (p Persona) NeedsAuthorization() bool {
	return p.Type != PersonaSelf && !p.Authorized
}

// DefaultPersona is the persona every process starts with.
func DefaultPersona() Persona {
	return Persona{Type: PersonaSelf, Name: "Self", Authorized: true}
}
