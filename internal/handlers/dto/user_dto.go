package dto

import (
	"strings"
	"time"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
)

const birthDateLayout = "2006-01-02"

// RegisterRequest representa a requisição de cadastro
type RegisterRequest struct {
	FullName    string   `json:"full_name" binding:"required,min=2,max=100"`
	PhoneNumber string   `json:"phone_number" binding:"required,e164"`
	Gender      string   `json:"gender" binding:"required,max=10,gender"`
	BirthDate   *string  `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Password    string   `json:"password" binding:"required,min=8,max=72"`
	Roles       []string `json:"roles" binding:"omitempty,max=10,dive,role_name"`
}

// ParsedBirthDate converte a data de nascimento já validada pelo binding
func (r RegisterRequest) ParsedBirthDate() *time.Time {
	if r.BirthDate == nil || *r.BirthDate == "" {
		return nil
	}
	t, err := time.Parse(birthDateLayout, *r.BirthDate)
	if err != nil {
		return nil
	}
	return &t
}

// LoginRequest aceita JSON ou formulário; "username" é aceito como alias do telefone
// para clientes do fluxo password do OAuth2
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" form:"phone_number" binding:"required_without=Username"`
	Username    string `json:"username" form:"username"`
	Password    string `json:"password" form:"password" binding:"required"`
}

// Phone retorna o telefone informado em qualquer um dos campos
func (r LoginRequest) Phone() string {
	if r.PhoneNumber != "" {
		return strings.TrimSpace(r.PhoneNumber)
	}
	return strings.TrimSpace(r.Username)
}

// LoginResponse segue o formato de token do OAuth2
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// PhoneRequest é usado por reenvio de verificação e esqueci-minha-senha
type PhoneRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,e164"`
}

// VerifyAccountRequest representa a confirmação do código de verificação
type VerifyAccountRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,e164"`
	Code        string `json:"code" binding:"required,max=64"`
}

// ResetPasswordRequest representa a troca de senha via código de redefinição
type ResetPasswordRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,e164"`
	Code        string `json:"code" binding:"required,max=64"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=72"`
}

// ChangePasswordRequest representa a troca de senha de um usuário autenticado
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

// UpdateUserStatusRequest ativa ou desativa uma conta
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// RoleNamesRequest lista os roles a atribuir ou remover
type RoleNamesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1,max=20,dive,role_name"`
}

// ListUsersQuery contém os filtros da listagem de usuários
type ListUsersQuery struct {
	Role     *string `form:"role" binding:"omitempty,role_name"`
	IsActive *bool   `form:"is_active"`
	Page     int     `form:"page" binding:"omitempty,gte=1"`
	PageSize int     `form:"page_size" binding:"omitempty,gte=1,lte=100"`
}

// UserResponse representa a resposta de um usuário
type UserResponse struct {
	ID          uint           `json:"id"`
	FullName    string         `json:"full_name"`
	PhoneNumber string         `json:"phone_number"`
	Gender      string         `json:"gender"`
	BirthDate   *string        `json:"birth_date"`
	IsActive    bool           `json:"is_active"`
	IsVerified  bool           `json:"is_verified"`
	Roles       []RoleResponse `json:"roles"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// UserListResponse é uma página de usuários
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	PageMeta
}

// ToUserResponse converte uma entidade User para UserResponse.
// Códigos de uso único e hash de senha nunca saem na resposta.
func ToUserResponse(user *entities.User) UserResponse {
	var birthDate *string
	if user.BirthDate != nil {
		s := user.BirthDate.Format(birthDateLayout)
		birthDate = &s
	}

	roles := make([]RoleResponse, 0, len(user.Roles))
	for i := range user.Roles {
		roles = append(roles, ToRoleResponse(&user.Roles[i]))
	}

	return UserResponse{
		ID:          user.ID,
		FullName:    user.FullName,
		PhoneNumber: user.PhoneNumber.String(),
		Gender:      user.Gender,
		BirthDate:   birthDate,
		IsActive:    user.IsActive,
		IsVerified:  user.IsVerified,
		Roles:       roles,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// ToUserResponses converte uma lista de entidades User para UserResponse
func ToUserResponses(users []*entities.User) []UserResponse {
	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = ToUserResponse(user)
	}
	return responses
}
