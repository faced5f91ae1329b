package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	requestIDKey    = "request_id"
	actorIDKey      = "actor_id"
	requestIDMaxLen = 64
)

// RequestID берет X-Request-ID из запроса или генерирует новый
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" || len(rid) > requestIDMaxLen {
			rid = uuid.New().String()
		}

		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)

		c.Next()
	}
}

// RequestLogger пишет одну строку на запрос; уровень зависит от статуса ответа
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status":     status,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"query":      c.Request.URL.RawQuery,
			"latency":    time.Since(start),
			"request_id": c.GetString(requestIDKey),
			"actor_id":   c.GetUint(actorIDKey),
		})

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}

// Actor читает инициатора из X-Actor-ID. Пустой заголовок дает инициатора 0,
// такой запрос отклонят сервисы; нечисловой - сразу 400
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-Actor-ID"))
		if raw == "" {
			c.Set(actorIDKey, uint(0))
			c.Next()
			return
		}

		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "validation", "некорректный заголовок X-Actor-ID", nil)
			return
		}

		c.Set(actorIDKey, uint(id))
		c.Next()
	}
}

func actorID(c *gin.Context) uint {
	return c.GetUint(actorIDKey)
}
