package leave

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	leaveerrors "go-leave/internal/leave/errors"
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
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Categories(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.Categories(), nil)
}

func (h *Handler) Submit(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	var req SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http submit leave validation failed", zap.Error(err))
		appErr := apperror.MapValidationError(err)
		response.Error(c, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), identity, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) ListMine(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	resp, err := h.service.ListMine(c.Request.Context(), identity)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, size := response.PageParams(c)
	items, meta := response.Paginate(resp, page, size)
	response.Success(c, http.StatusOK, items, &meta)
}

func (h *Handler) ListAll(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	filter, err := filterFromQuery(c)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.service.ListAll(c.Request.Context(), identity, filter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, size := response.PageParams(c)
	items, meta := response.Paginate(resp, page, size)
	response.Success(c, http.StatusOK, items, &meta)
}

func filterFromQuery(c *gin.Context) (ListFilter, error) {
	f := ListFilter{
		Status:     c.Query("status"),
		Name:       c.Query("name"),
		Department: c.Query("department"),
	}
	var err error
	if f.Month, err = queryInt(c, "month"); err != nil {
		return f, err
	}
	if f.Year, err = queryInt(c, "year"); err != nil {
		return f, err
	}
	return f, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, leaveerrors.ErrInvalidFilter
	}
	return n, nil
}

func (h *Handler) Get(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	resp, err := h.service.Get(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	resp, err := h.service.Approve(c.Request.Context(), identity, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	// The body is optional; a reject without one carries no reason.
	var req RejectLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("http reject leave validation failed", zap.Error(err))
		appErr := apperror.MapValidationError(err)
		response.Error(c, appErr.HTTPStatus, appErr.Code, appErr.Message, nil)
		return
	}

	resp, err := h.service.Reject(c.Request.Context(), identity, c.Param("id"), req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	identity, _ := middleware.CurrentIdentity(c)

	if err := h.service.Delete(c.Request.Context(), identity, c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
