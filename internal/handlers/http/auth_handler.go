package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/carelink-accounts/internal/handlers/dto"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/metrics"
	"github.com/rafabene/carelink-accounts/internal/services"
)

// AuthHandler lida com cadastro, login, verificação e redefinição de senha
type AuthHandler struct {
	userService         *services.UserService
	verificationService *services.VerificationService
	resetService        *services.PasswordResetService
	errors              *ErrorResponder
}

// NewAuthHandler cria um novo AuthHandler
func NewAuthHandler(
	userService *services.UserService,
	verificationService *services.VerificationService,
	resetService *services.PasswordResetService,
	errors *ErrorResponder,
) *AuthHandler {
	return &AuthHandler{
		userService:         userService,
		verificationService: verificationService,
		resetService:        resetService,
		errors:              errors,
	}
}

// Register cadastra um novo usuário
//
//	@Summary	Register a new user
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.RegisterRequest	true	"Registration data"
//	@Success	201		{object}	dto.UserResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Failure	409		{object}	dto.ErrorResponse
//	@Router		/users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		h.errors.RespondBinding(c, err)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Gender:      req.Gender,
		BirthDate:   req.ParsedBirthDate(),
		Password:    req.Password,
		Roles:       req.Roles,
	})
	metrics.RegistrationsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// Login autentica por telefone e senha e devolve o bearer token
//
//	@Summary	Log in with phone number and password
//	@Tags		auth
//	@Accept		json,x-www-form-urlencoded
//	@Produce	json
//	@Param		request	body		dto.LoginRequest	true	"Credentials"
//	@Success	200		{object}	dto.LoginResponse
//	@Failure	401		{object}	dto.ErrorResponse
//	@Failure	403		{object}	dto.ErrorResponse
//	@Router		/users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		h.errors.RespondBinding(c, err)
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req.Phone(), req.Password)
	metrics.LoginsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		if StatusForError(err) == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
		}
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   int64(result.ExpiresIn.Seconds()),
		User:        dto.ToUserResponse(result.User),
	})
}

// VerifyAccount confirma o telefone com o código recebido por SMS
//
//	@Summary	Verify phone ownership
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.VerifyAccountRequest	true	"Phone and code"
//	@Success	200		{object}	dto.MessageResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Failure	409		{object}	dto.ErrorResponse
//	@Router		/users/verify [post]
func (h *AuthHandler) VerifyAccount(c *gin.Context) {
	var req dto.VerifyAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	_, err := h.verificationService.VerifyAccount(c.Request.Context(), req.PhoneNumber, req.Code)
	metrics.OneTimeCodeChecksTotal.WithLabelValues("verification", resultLabel(err)).Inc()
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(c, "message.account_verified"))
}

// ResendVerification emite um novo código de verificação
//
//	@Summary	Resend the verification code
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.PhoneRequest	true	"Phone"
//	@Success	200		{object}	dto.MessageResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Failure	409		{object}	dto.ErrorResponse
//	@Router		/users/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req dto.PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	if err := h.verificationService.SendVerificationCode(c.Request.Context(), req.PhoneNumber); err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(c, "message.verification_code_sent"))
}

// ForgotPassword inicia a redefinição de senha; a resposta é sempre a mesma
//
//	@Summary	Request a password reset code
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.PhoneRequest	true	"Phone"
//	@Success	200		{object}	dto.MessageResponse
//	@Router		/users/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	if err := h.resetService.RequestPasswordReset(c.Request.Context(), req.PhoneNumber); err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(c, "message.password_reset_requested"))
}

// ResetPassword troca a senha usando o código de redefinição
//
//	@Summary	Reset the password with a reset code
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		dto.ResetPasswordRequest	true	"Phone, code and new password"
//	@Success	200		{object}	dto.MessageResponse
//	@Failure	400		{object}	dto.ErrorResponse
//	@Failure	404		{object}	dto.ErrorResponse
//	@Router		/users/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.RespondBinding(c, err)
		return
	}

	err := h.resetService.ResetPassword(c.Request.Context(), req.PhoneNumber, req.Code, req.NewPassword)
	metrics.OneTimeCodeChecksTotal.WithLabelValues("password_reset", resultLabel(err)).Inc()
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewMessageResponse(c, "message.password_reset"))
}
