// internal/api/handlers.payment.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Tanmoy095/pagos-api/internal/payment"
)

const maxNotificationBody = 1 << 20

func (s *Server) handleCreateClient(c *gin.Context) {
	var in payment.NewClient
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Cuerpo de la solicitud invalido")
		return
	}
	client, err := s.deps.Payments.RegisterClient(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    http.StatusCreated,
		"mensaje": "Cliente creado exitosamente",
		"cliente": client,
	})
}

func (s *Server) handleListClients(c *gin.Context) {
	clients, err := s.deps.Payments.ListClients(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if clients == nil {
		clients = []payment.Client{}
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "clientes": clients})
}

func (s *Server) handleGetClient(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	client, err := s.deps.Payments.GetClient(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "cliente": client})
}

func (s *Server) handleClientPreferences(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	client, prefs, err := s.deps.Payments.ListClientPreferences(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if prefs == nil {
		prefs = []payment.Preference{}
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "cliente": client, "preferencias": prefs})
}

func (s *Server) handleClientPayments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	client, pays, err := s.deps.Payments.ListClientPayments(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if pays == nil {
		pays = []payment.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "cliente": client, "pagos": pays})
}

func (s *Server) handleCreatePreference(c *gin.Context) {
	clientID, ok := pathID(c, "client_id")
	if !ok {
		return
	}
	var req payment.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Cuerpo de la solicitud invalido")
		return
	}
	res, err := s.deps.Payments.IssuePreference(c.Request.Context(), clientID, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":        http.StatusCreated,
		"mensaje":     "Preferencia creada exitosamente",
		"cliente":     res.Client,
		"preferencia": res.Preference,
	})
}

func (s *Server) handleGetPreference(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pref, err := s.deps.Payments.GetPreference(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":             http.StatusOK,
		"preferencia":      pref,
		"pago_preferencia": pref.Payment,
	})
}

func (s *Server) handleGetPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pay, err := s.deps.Payments.GetPayment(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "pago": pay})
}

// handleNotification acknowledges every delivery with 200 and echoes the
// payload. Failures are logged; the provider retries on its own schedule and
// the reconciliation worker sweeps whatever is still pending.
func (s *Server) handleNotification(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxNotificationBody)
	raw, err := c.GetRawData()
	if err != nil {
		// Oversized or broken bodies are acknowledged with a null echo and
		// never processed.
		var tooLarge *http.MaxBytesError
		s.logger.Warn("notification body rejected",
			"request_id", c.GetString(ctxRequestID),
			"too_large", errors.As(err, &tooLarge),
			"error", err,
		)
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "response_payload": nil})
		return
	}

	var echo any = string(raw)
	if json.Valid(raw) {
		echo = json.RawMessage(bytes.TrimSpace(raw))
	}

	var n payment.Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		s.logger.Warn("notification body is not a notification",
			"request_id", c.GetString(ctxRequestID),
			"error", err,
		)
	} else {
		// The delivery is processed to completion even if the provider hangs up.
		ctx := context.WithoutCancel(c.Request.Context())
		outcome, err := s.deps.Payments.HandleNotification(ctx, n)
		attrs := []any{
			"request_id", c.GetString(ctxRequestID),
			"action", n.Action,
			"provider_payment_id", string(n.Data.ID),
			"outcome", string(outcome),
		}
		if err != nil {
			s.logger.Error("notification processing failed", append(attrs, "error", err)...)
		} else {
			s.logger.Info("notification processed", attrs...)
		}
	}

	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "response_payload": echo})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Identificador invalido")
		return 0, false
	}
	return id, true
}
