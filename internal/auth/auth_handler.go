package auth

import (
	"net/http"
	"time"

	"go-leave/internal/middleware"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service      Service
	secureCookie bool
	logger       *zap.Logger
}

func NewHandler(s Service, secureCookie bool, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("auth.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.handler")
	}
	return &Handler{service: s, secureCookie: secureCookie, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("auth request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if token == "" {
		maxAge = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := apperror.MapValidationError(err)
		response.Error(c, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req, Device{
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.setSessionCookie(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusOK, LoginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      toIdentityResponse(res.Identity),
	}, nil)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.CurrentToken(c)); err != nil {
		h.writeServiceError(c, err)
		return
	}
	h.setSessionCookie(c, "", time.Time{})
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, nil)
}

func (h *Handler) LogoutAll(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	n, err := h.service.LogoutAll(c.Request.Context(), identity)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	h.setSessionCookie(c, "", time.Time{})
	response.Success(c, http.StatusOK, gin.H{"revoked_sessions": n}, nil)
}

func (h *Handler) Me(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)
	response.Success(c, http.StatusOK, toIdentityResponse(identity), nil)
}

func (h *Handler) Sessions(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	resp, err := h.service.ListSessions(c.Request.Context(), identity)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
