package dto

import (
	"time"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
)

// CreateRoleRequest representa a criação de um role customizado
type CreateRoleRequest struct {
	Name        string  `json:"name" binding:"required,role_name"`
	DisplayName string  `json:"display_name" binding:"required,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// UpdateRoleRequest contém os campos editáveis; o nome não pode mudar
type UpdateRoleRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// ListRolesQuery controla a inclusão de roles inativos (somente admins)
type ListRolesQuery struct {
	IncludeInactive bool `form:"include_inactive"`
}

// RoleResponse representa a resposta de um role
type RoleResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	DisplayName  string    `json:"display_name"`
	Description  *string   `json:"description"`
	IsSystemRole bool      `json:"is_system_role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToRoleResponse converte uma entidade Role para RoleResponse
func ToRoleResponse(role *entities.Role) RoleResponse {
	return RoleResponse{
		ID:           role.ID,
		Name:         role.Name,
		DisplayName:  role.DisplayName,
		Description:  role.Description,
		IsSystemRole: role.IsSystemRole,
		IsActive:     role.IsActive,
		CreatedAt:    role.CreatedAt,
		UpdatedAt:    role.UpdatedAt,
	}
}

// ToRoleResponses converte uma lista de entidades Role
func ToRoleResponses(roles []*entities.Role) []RoleResponse {
	responses := make([]RoleResponse, len(roles))
	for i, role := range roles {
		responses[i] = ToRoleResponse(role)
	}
	return responses
}
