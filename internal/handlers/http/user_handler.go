package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/repositories"
	"github.com/rafabene/carelink-accounts/internal/handlers/dto"
	"github.com/rafabene/carelink-accounts/internal/handlers/middleware"
	"github.com/rafabene/carelink-accounts/internal/services"
)

// UserHandler lida com requisições HTTP relacionadas a usuários autenticados
type UserHandler struct {
	userService *services.UserService
	roleService *services.RoleService
	errors      *ErrorResponder
}

// NewUserHandler cria um novo UserHandler
func NewUserHandler(userService *services.UserService, roleService *services.RoleService, errors *ErrorResponder) *UserHandler {
	return &UserHandler{
		userService: userService,
		roleService: roleService,
		errors:      errors,
	}
}

// Me retorna o usuário autenticado
//
//	@Summary	Get the authenticated user
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	dto.UserResponse
//	@Failure	401	{object}	dto.ErrorResponse
//	@Router		/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// ChangePassword troca a senha do usuário autenticado
//
//	@Summary	Change the authenticated user's password
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		dto.ChangePasswordRequest	true	"Current and new password"
//	@Success	200		{object}	dto.MessageResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Router		/users/me/change-password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(c, "message.password_changed"))
}

// GetUser busca um usuário por ID; permitido ao próprio usuário e a admins
//
//	@Summary	Get a user by id
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"User ID"
//	@Success	200	{object}	dto.UserResponse
//	@Failure	403	{object}	dto.ErrorResponse
//	@Failure	404	{object}	dto.ErrorResponse
//	@Router		/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	viewer, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserForViewer(c.Request.Context(), viewer, id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// ListUsers lista usuários com paginação e filtros
//
//	@Summary	List users
//	@Tags		users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		role		query		string	false	"Role name"
//	@Param		is_active	query		bool	false	"Active flag"
//	@Param		page		query		int		false	"Page (starts at 1)"
//	@Param		page_size	query		int		false	"Page size (max 100)"
//	@Success	200			{object}	dto.UserListResponse
//	@Router		/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var query dto.ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	filters := repositories.UserFilters{
		Role:     query.Role,
		IsActive: query.IsActive,
		Page:     query.Page,
		PageSize: query.PageSize,
	}.Normalize()

	users, total, err := h.userService.ListUsers(c.Request.Context(), filters)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserListResponse{
		Items: dto.ToUserResponses(users),
		PageMeta: dto.PageMeta{
			Page:     filters.Page,
			PageSize: filters.PageSize,
			Total:    total,
		},
	})
}

// UpdateStatus ativa ou desativa uma conta
//
//	@Summary	Activate or deactivate a user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int								true	"User ID"
//	@Param		request	body		dto.UpdateUserStatusRequest	true	"New status"
//	@Success	200		{object}	dto.UserResponse
//	@Failure	403		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Router		/users/{id}/status [patch]
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	user, err := h.userService.SetUserActive(c.Request.Context(), actor, id, *req.IsActive)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// AssignRoles atribui roles a um usuário; roles já atribuídos são ignorados
//
//	@Summary	Assign roles to a user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int						true	"User ID"
//	@Param		request	body		dto.RoleNamesRequest	true	"Role names"
//	@Success	200		{object}	dto.UserResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Router		/users/{id}/roles [post]
func (h *UserHandler) AssignRoles(c *gin.Context) {
	h.changeRoles(c, h.roleService.AssignRolesToUser)
}

// RemoveRoles remove roles de um usuário; roles não atribuídos são ignorados
//
//	@Summary	Remove roles from a user
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int						true	"User ID"
//	@Param		request	body		dto.RoleNamesRequest	true	"Role names"
//	@Success	200		{object}	dto.UserResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Router		/users/{id}/roles [delete]
func (h *UserHandler) RemoveRoles(c *gin.Context) {
	h.changeRoles(c, h.roleService.RemoveRolesFromUser)
}

type roleChange func(ctx context.Context, userID uint, roleNames []string) (*entities.User, error)

func (h *UserHandler) changeRoles(c *gin.Context, apply roleChange) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req dto.RoleNamesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	user, err := apply(c.Request.Context(), id, req.Roles)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *UserHandler) currentUser(c *gin.Context) (*entities.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.errors.Respond(c, domainerrors.ErrUnauthorized)
	}
	return user, ok
}

func (h *UserHandler) pathID(c *gin.Context) (uint, bool) {
	return parseID(c, h.errors)
}

// parseID lê o parâmetro :id como inteiro positivo
func parseID(c *gin.Context, errors *ErrorResponder) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		errors.Respond(c, domainerrors.New(domainerrors.KindInvalid, "error.invalid_id").WithField("id"))
		return 0, false
	}
	return uint(id), true
}
