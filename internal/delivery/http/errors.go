// internal/delivery/http/errors.go
package httpapi

import (
	"net/http"

	"crypto-exchange-web/internal/core/domain/apperr"
	"crypto-exchange-web/pkg/logger"

	"github.com/gin-gonic/gin"
)

type apiError struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

// statusForKind - HTTP-статус для категории ошибки.
// Клиенты ожидают 400 для любой ошибки.
func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindDomain, apperr.KindNetwork, apperr.KindUpstream, apperr.KindParse:
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind != apperr.KindDomain {
		logger.Warn("⚠️ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(statusForKind(kind), apiError{Error: err.Error(), Kind: kind})
}
