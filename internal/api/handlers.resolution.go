// internal/api/handlers.resolution.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tanmoy095/pagos-api/internal/auth"
	"github.com/Tanmoy095/pagos-api/internal/resolution"
)

func currentUser(c *gin.Context) *auth.User {
	u, _ := c.MustGet(ctxUser).(*auth.User)
	return u
}

func (s *Server) handleCreateResolution(c *gin.Context) {
	var in resolution.NewResolution
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Cuerpo de la solicitud invalido")
		return
	}
	r, err := s.deps.Resolutions.Create(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":       http.StatusCreated,
		"mensaje":    "Resolucion registrada exitosamente",
		"resolucion": r,
	})
}

func (s *Server) handleAnonymousResolution(c *gin.Context) {
	var in resolution.NewResolution
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Cuerpo de la solicitud invalido")
		return
	}
	if err := s.deps.Resolutions.SubmitAnonymous(c.Request.Context(), in); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": http.StatusCreated, "mensaje": "Resolucion recibida"})
}

func (s *Server) handleListResolutions(c *gin.Context) {
	list, err := s.deps.Resolutions.ListByUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if list == nil {
		list = []resolution.Resolution{}
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "resoluciones": list})
}

func (s *Server) handleGetResolution(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	r, err := s.deps.Resolutions.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "resolucion": r})
}
