package types

// Readiness is the gateway's belief about the conversational provider
type Readiness string

const (
	ReadinessUnknown     Readiness = "unknown"
	ReadinessReady       Readiness = "ready"
	ReadinessUnavailable Readiness = "unavailable"
)

func (r Readiness) String() string {
	return string(r)
}

// IsReady reports whether forwards may go to the provider without a probe
func (r Readiness) IsReady() bool {
	return r == ReadinessReady
}
