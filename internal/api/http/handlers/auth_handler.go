package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/myhostelpal/complaint-service/internal/api/dto"
	"github.com/myhostelpal/complaint-service/internal/service"
)

// AuthHandler exposes registration, login and profile endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		RoomNumber:  req.RoomNumber,
		HostelBlock: req.HostelBlock,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(authResponse(res))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.UserContext(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(authResponse(res))
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// UpdatePushToken handles PUT /auth/me/push-token.
func (h *AuthHandler) UpdatePushToken(c *fiber.Ctx) error {
	user, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.PushTokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.auth.UpdatePushToken(c.UserContext(), user, req.PushToken)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(updated))
}

func authResponse(res *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, User: dto.NewUserResponse(res.User)}
}
