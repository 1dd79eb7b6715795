package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/carelink-accounts/internal/handlers/dto"
	"github.com/rafabene/carelink-accounts/internal/handlers/middleware"
	"github.com/rafabene/carelink-accounts/internal/services"
)

// RoleHandler lida com a administração de roles
type RoleHandler struct {
	roleService *services.RoleService
	errors      *ErrorResponder
}

// NewRoleHandler cria um novo RoleHandler
func NewRoleHandler(roleService *services.RoleService, errors *ErrorResponder) *RoleHandler {
	return &RoleHandler{roleService: roleService, errors: errors}
}

// ListRoles lista roles ativos; admins podem incluir os inativos
//
//	@Summary	List roles
//	@Tags		roles
//	@Produce	json
//	@Security	BearerAuth
//	@Param		include_inactive	query	bool	false	"Include deactivated roles (admin only)"
//	@Success	200	{array}	dto.RoleResponse
//	@Router		/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	var query dto.ListRolesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	includeInactive := false
	if user, ok := middleware.CurrentUser(c); ok && user.IsAdmin() {
		includeInactive = query.IncludeInactive
	}

	roles, err := h.roleService.ListRoles(c.Request.Context(), includeInactive)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRoleResponses(roles))
}

// GetRole busca um role por ID
//
//	@Summary	Get a role by id
//	@Tags		roles
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Role ID"
//	@Success	200	{object}	dto.RoleResponse
//	@Failure	404	{object}	dto.ErrorResponse
//	@Router		/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, ok := parseID(c, h.errors)
	if !ok {
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRoleResponse(role))
}

// CreateRole cria um role customizado
//
//	@Summary	Create a custom role
//	@Tags		roles
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		dto.CreateRoleRequest	true	"Role"
//	@Success	201		{object}	dto.RoleResponse
//	@Failure	409		{object}	dto.ErrorResponse
//	@Router		/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req dto.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), services.CreateRoleInput{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
	})
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRoleResponse(role))
}

// UpdateRole altera um role customizado
//
//	@Summary	Update a custom role
//	@Tags		roles
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		int						true	"Role ID"
//	@Param		request	body		dto.UpdateRoleRequest	true	"Fields to change"
//	@Success	200		{object}	dto.RoleResponse
//	@Failure	403		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Router		/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := parseID(c, h.errors)
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, services.UpdateRoleInput{
		DisplayName: req.DisplayName,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRoleResponse(role))
}

// DeleteRole desativa um role customizado
//
//	@Summary	Deactivate a custom role
//	@Tags		roles
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		int	true	"Role ID"
//	@Success	200	{object}	dto.MessageResponse
//	@Failure	403	{object}	dto.ErrorResponse
//	@Failure	404	{object}	dto.ErrorResponse
//	@Router		/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, ok := parseID(c, h.errors)
	if !ok {
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), id); err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(c, "message.role_deleted"))
}
