// internal/api/errors.go
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tanmoy095/pagos-api/internal/auth"
	"github.com/Tanmoy095/pagos-api/internal/payment"
	"github.com/Tanmoy095/pagos-api/internal/resolution"
)

const (
	msgInternal        = "Internal Server Error"
	msgProviderTimeout = "Mercado Pago no respondio a tiempo, reintente"
)

// retryAfterSeconds is advertised on provider timeouts.
const retryAfterSeconds = "5"

// mapError translates domain errors to a status and a client safe message.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, payment.ErrClientNotFound):
		return http.StatusNotFound, "Cliente no encontrado"
	case errors.Is(err, payment.ErrPreferenceNotFound):
		return http.StatusNotFound, "Preferencia no encontrada"
	case errors.Is(err, payment.ErrPaymentNotFound):
		return http.StatusNotFound, "Pago no encontrado"
	case errors.Is(err, resolution.ErrResolutionNotFound):
		return http.StatusNotFound, "Resolucion no encontrada"
	case errors.Is(err, payment.ErrClientExists):
		return http.StatusConflict, "El cliente ya existe"
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "Acceso no autorizado"
	case errors.Is(err, auth.ErrUserInactive):
		return http.StatusBadRequest, "Usuario inactivo"
	case errors.Is(err, payment.ErrInvalidInput), errors.Is(err, resolution.ErrInvalidInput):
		// validation messages carry no internals
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, payment.ErrProviderTimeout):
		return http.StatusInternalServerError, msgProviderTimeout
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// writeError renders {code, error}. Server side failures are logged with the
// request id, the body stays generic.
func (s *Server) writeError(c *gin.Context, err error) {
	status, msg := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", c.GetString(ctxRequestID),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	switch {
	case status == http.StatusUnauthorized:
		c.Header("WWW-Authenticate", "Bearer")
	case errors.Is(err, payment.ErrProviderTimeout):
		c.Header("Retry-After", retryAfterSeconds)
	}
	c.AbortWithStatusJSON(status, gin.H{"code": status, "error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "error": msg})
}
