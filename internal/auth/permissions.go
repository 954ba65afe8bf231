package auth

import "strings"

// StaffPermission gates admin routes for STAFF tokens. ADMIN tokens pass
// every check.
type StaffPermission string

const (
	PermOrders  StaffPermission = "orders"
	PermReviews StaffPermission = "reviews"
	PermCatalog StaffPermission = "catalog"
	PermReports StaffPermission = "reports"
)

var apiPermissionMap = map[string]StaffPermission{
	"/api/admin/orders":     PermOrders,
	"/api/admin/returns":    PermOrders,
	"/api/admin/reviews":    PermReviews,
	"/api/admin/products":   PermCatalog,
	"/api/admin/sold-count": PermReports,
	"/api/admin/reports":    PermReports,
	"/api/admin/telemetry":  PermReports,
}

// GetPermissionForAPI returns the permission for the longest matching path
// prefix, or nil when the path is not gated.
func GetPermissionForAPI(path string) *StaffPermission {
	var bestPath string
	var bestPerm *StaffPermission

	for keyPath, perm := range apiPermissionMap {
		if !strings.HasPrefix(path, keyPath) {
			continue
		}
		if bestPerm == nil || len(keyPath) > len(bestPath) {
			bestPath = keyPath
			permCopy := perm
			bestPerm = &permCopy
		}
	}

	return bestPerm
}

func HasPermission(granted []string, perm StaffPermission) bool {
	for _, p := range granted {
		if p == string(perm) {
			return true
		}
	}
	return false
}
