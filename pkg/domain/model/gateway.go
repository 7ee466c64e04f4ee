package model

import (
	"time"

	"github.com/insurdesk/concierge/pkg/domain/types"
)

const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// GatewayStatus is a read-only snapshot of the gateway readiness
type GatewayStatus struct {
	// Running is true when the last probe reached the provider
	Running bool `json:"running"`
	// Ready is true when the provider reported itself healthy
	Ready       bool            `json:"ready"`
	URL         string          `json:"url"`
	State       types.Readiness `json:"state"`
	LastProbeAt *time.Time      `json:"lastProbeAt,omitempty"`
}

// GatewayHealth is GatewayStatus plus a derived verdict
type GatewayHealth struct {
	Status string `json:"status"`
	GatewayStatus
}

// NewGatewayHealth reports healthy only when the provider is both running
// and ready
func NewGatewayHealth(status GatewayStatus) GatewayHealth {
	verdict := HealthUnhealthy
	if status.Running && status.Ready {
		verdict = HealthHealthy
	}
	return GatewayHealth{Status: verdict, GatewayStatus: status}
}
