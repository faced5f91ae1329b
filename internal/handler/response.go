package handler

import (
	"errors"
	"net/http"
	"rotation-workflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type errorBody struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type errorResponse struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

type dataResponse struct {
	Data interface{} `json:"data"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dataResponse{Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dataResponse{Data: data})
}

func abortWithError(c *gin.Context, status int, kind, message string, details map[string]interface{}) {
	c.AbortWithStatusJSON(status, errorResponse{
		Error:     errorBody{Kind: kind, Message: message, Details: details},
		RequestID: c.GetString(requestIDKey),
	})
}

func badRequest(c *gin.Context, message string) {
	abortWithError(c, http.StatusBadRequest, string(service.KindValidation), message, nil)
}

func statusOf(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError переводит ошибку сервиса в ответ. Внутренние ошибки уходят в лог
// целиком, а клиент получает общее сообщение
func (h *Handler) writeError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := statusOf(kind)

	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"path":       c.Request.URL.Path,
		}).Error("Internal error")
		abortWithError(c, status, string(service.KindInternal), "внутренняя ошибка сервера", nil)
		return
	}

	var e *service.Error
	if errors.As(err, &e) {
		abortWithError(c, status, string(e.Kind), e.Message, e.Details)
		return
	}
	abortWithError(c, status, string(kind), err.Error(), nil)
}
