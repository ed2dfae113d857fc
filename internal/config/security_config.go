package config

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityRefresh                      // Refresh token required
	SecurityAccess                       // Access token required
	SecurityAdmin                        // Access token with admin role
)

func (l SecurityLevel) String() string {
	switch l {
	case SecurityPublic:
		return "public"
	case SecurityRefresh:
		return "refresh"
	case SecurityAdmin:
		return "admin"
	default:
		return "access"
	}
}

// RouteSecurity maps "METHOD /path-template" (the gorilla/mux template) to the
// level the auth middleware enforces.
var RouteSecurity = map[string]SecurityLevel{
	// Health and metrics
	"GET /healthz": SecurityPublic,
	"GET /metrics": SecurityPublic,

	// Auth
	"POST /api/v1/auth/register": SecurityPublic,
	"POST /api/v1/auth/login":    SecurityPublic,
	"POST /api/v1/auth/refresh":  SecurityRefresh,
	"POST /api/v1/auth/logout":   SecurityAccess,
	"GET /api/v1/auth/me":        SecurityAccess,

	// Catalog and preview
	"GET /api/v1/analysis-types":    SecurityPublic,
	"GET /api/v1/coins/packages":    SecurityPublic,
	"POST /api/v1/elements/preview": SecurityPublic,

	// Coins
	"GET /api/v1/coins/balance":      SecurityAccess,
	"GET /api/v1/coins/transactions": SecurityAccess,

	// Payments; the webhook is called by the PSP and verified against it
	"POST /api/v1/payments/prepare":  SecurityAccess,
	"POST /api/v1/payments/complete": SecurityAccess,
	"POST /api/v1/payments/webhook":  SecurityPublic,

	// Analyses
	"POST /api/v1/analyses":     SecurityAccess,
	"GET /api/v1/analyses":      SecurityAccess,
	"GET /api/v1/analyses/{id}": SecurityAccess,

	// Admin
	"GET /api/v1/admin/transactions":              SecurityAdmin,
	"GET /api/v1/admin/stats":                     SecurityAdmin,
	"POST /api/v1/admin/transactions/{id}/refund": SecurityAdmin,
	"POST /api/v1/admin/users/{id}/coins":         SecurityAdmin,
}

// GetRouteSecurity returns the level for a route, defaulting to
// SecurityAccess for anything not listed.
func GetRouteSecurity(method, pathTemplate string) SecurityLevel {
	if level, ok := RouteSecurity[method+" "+pathTemplate]; ok {
		return level
	}
	return SecurityAccess
}
