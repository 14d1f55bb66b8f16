package account

import (
	"net/http"
	"strings"

	"go-leave/internal/middleware"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("account.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("account.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("account request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.Error(err),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) writeBindError(c *gin.Context, err error) {
	appErr := apperror.MapValidationError(err)
	response.Error(c, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
}

func (h *Handler) GetMe(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	resp, err := h.service.GetProfile(c.Request.Context(), identity.Username)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.UpdateProfile(c.Request.Context(), identity, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) List(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	resp, err := h.service.List(c.Request.Context(), identity)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if dept := strings.TrimSpace(c.Query("department")); dept != "" {
		filtered := make([]AccountResponse, 0, len(resp))
		for _, a := range resp {
			if strings.EqualFold(a.Department, dept) {
				filtered = append(filtered, a)
			}
		}
		resp = filtered
	}

	page, size := response.PageParams(c)
	items, meta := response.Paginate(resp, page, size)
	response.Success(c, http.StatusOK, items, &meta)
}

func (h *Handler) Create(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), identity, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) AdjustBalance(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.AdjustBalance(c.Request.Context(), identity, c.Param("username"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) ListAdjustments(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	resp, err := h.service.ListAdjustments(c.Request.Context(), identity, c.Param("username"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
