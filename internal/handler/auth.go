package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/park-ledger/internal/config"
	"github.com/iliyamo/park-ledger/internal/utils"
)

// AuthHandler issues admin access tokens.
type AuthHandler struct {
	Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler { return &AuthHandler{Cfg: cfg} }

type loginReq struct {
	Password string `json:"password"`
}

// Login checks the admin password against ADMIN_PASSWORD_HASH.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
	}
	if !utils.VerifyPassword(h.Cfg.AdminPasswordHash, req.Password) {
		logrus.WithField("client_ip", c.RealIP()).Warn("admin login rejected")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.Cfg.JWTSecret, "admin", utils.RoleAdmin, h.Cfg.AccessTTLMin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tok)
}
