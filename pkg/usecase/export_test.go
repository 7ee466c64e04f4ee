package usecase

import "time"

// SetGatewayClock replaces the clock used for timestamps and session ids
func SetGatewayClock(g *GatewayUseCase, now func() time.Time) {
	g.now = now
}

// ExtractBearer is exported for testing
var ExtractBearer = extractBearer
