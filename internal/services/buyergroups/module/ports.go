package module

import "quorum/internal/services/buyergroups/service"

// Ports exposes the buyergroups service surfaces
type Ports struct {
	Store *service.Service
}
