package api

import (
	"net/http"
	"time"
	"uptime_pinger/internal/autoscaler"

	"github.com/gin-gonic/gin"
)

type statusResponse struct {
	LastDecision             *autoscaler.Decision `json:"last_decision"`
	LastError                string               `json:"last_error,omitempty"`
	LastScaleAction          *time.Time           `json:"last_scale_action"`
	CooldownRemainingSeconds float64              `json:"cooldown_remaining_seconds"`
}

type StatusHandler interface {
	GetStatus() gin.HandlerFunc
	Healthz() gin.HandlerFunc
}

type statusHandler struct {
	autoscaler autoscaler.Autoscaler
}

func (s *statusHandler) GetStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := s.autoscaler.Status()
		res := statusResponse{
			LastDecision:             status.LastDecision,
			CooldownRemainingSeconds: status.CooldownRemaining.Seconds(),
		}
		if status.LastError != nil {
			res.LastError = status.LastError.Error()
		}
		if !status.LastScaleAction.IsZero() {
			t := status.LastScaleAction
			res.LastScaleAction = &t
		}
		c.JSON(http.StatusOK, res)
	}
}

func (s *statusHandler) Healthz() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func NewStatusHandler(a autoscaler.Autoscaler) StatusHandler {
	return &statusHandler{autoscaler: a}
}

func AddStatusRoutes(r *gin.Engine, handler StatusHandler) {
	r.GET("/status", handler.GetStatus())
	r.GET("/healthz", handler.Healthz())
}
