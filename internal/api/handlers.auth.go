// internal/api/handlers.auth.go
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	GoogleJWT string `json:"google_jwt"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.GoogleJWT) == "" {
		badRequest(c, "google_jwt es requerido")
		return
	}
	token, _, err := s.deps.Auth.Login(c.Request.Context(), strings.TrimSpace(req.GoogleJWT))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}
