package entities

import (
	"strings"
	"time"
)

// Nomes dos roles de sistema
const (
	RoleAdmin                  = "admin"
	RoleHealthcareProfessional = "healthcare_professional"
	RolePatient                = "patient"
	RoleCaretaker              = "caretaker"
	RolePharmacist             = "pharmacist"
)

// DefaultRegistrationRoles são atribuídos quando o cadastro não pede roles
var DefaultRegistrationRoles = []string{RolePatient}

// Role representa o papel de um usuário no sistema
type Role struct {
	ID           uint
	Name         string
	DisplayName  string
	Description  *string
	IsSystemRole bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SystemRoleDefinition descreve um role semeado na inicialização
type SystemRoleDefinition struct {
	Name        string
	DisplayName string
	Description string
}

// SystemRoles é o conjunto fixo de roles de sistema
var SystemRoles = []SystemRoleDefinition{
	{Name: RoleAdmin, DisplayName: "Administrator", Description: "Full access to account and role administration"},
	{Name: RoleHealthcareProfessional, DisplayName: "Healthcare Professional", Description: "Clinician providing care to patients"},
	{Name: RolePatient, DisplayName: "Patient", Description: "Person receiving care"},
	{Name: RoleCaretaker, DisplayName: "Caretaker", Description: "Person caring for a patient"},
	{Name: RolePharmacist, DisplayName: "Pharmacist", Description: "Pharmacy staff dispensing medication"},
}

// IsSystemRoleName indica se o nome pertence ao conjunto de roles de sistema
func IsSystemRoleName(name string) bool {
	name = strings.ToLower(name)
	for _, def := range SystemRoles {
		if def.Name == name {
			return true
		}
	}
	return false
}

// NewSystemRole cria a entidade para uma definição de role de sistema
func NewSystemRole(def SystemRoleDefinition) *Role {
	desc := def.Description
	return &Role{
		Name:         def.Name,
		DisplayName:  def.DisplayName,
		Description:  &desc,
		IsSystemRole: true,
		IsActive:     true,
	}
}

// Matches compara o nome do role sem diferenciar maiúsculas
func (r *Role) Matches(name string) bool {
	return strings.EqualFold(r.Name, name)
}

// CanBeModified indica se operações administrativas podem alterar o role
func (r *Role) CanBeModified() bool {
	return !r.IsSystemRole
}
