// AngelaMos | 2026
// context.go

package middleware

import (
	"context"
	"sync"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	TenantIDKey  contextKey = "tenant_id"

	requestAttrsKey contextKey = "request_attrs"
)

// requestAttrs lets the access log see identities that inner middleware
// attach to derived contexts after the log middleware has run.
type requestAttrs struct {
	mu       sync.Mutex
	userID   string
	tenantID string
}

func withRequestAttrs(ctx context.Context) (context.Context, *requestAttrs) {
	attrs := &requestAttrs{}
	return context.WithValue(ctx, requestAttrsKey, attrs), attrs
}

func noteRequestAttrs(ctx context.Context, fn func(*requestAttrs)) {
	attrs, ok := ctx.Value(requestAttrsKey).(*requestAttrs)
	if !ok {
		return
	}
	attrs.mu.Lock()
	fn(attrs)
	attrs.mu.Unlock()
}

func (a *requestAttrs) snapshot() (userID, tenantID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID, a.tenantID
}

// WithTenantID records the tenant a request has been resolved to.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	noteRequestAttrs(ctx, func(a *requestAttrs) { a.tenantID = tenantID })
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

func GetTenantID(ctx context.Context) string {
	if id, ok := ctx.Value(TenantIDKey).(string); ok {
		return id
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// CanAccessTenant reports whether the caller may act inside tenantID.
// Members reach only their own tenant; the super admin reaches all.
func CanAccessTenant(ctx context.Context, tenantID string) bool {
	if IsSuperAdmin(ctx) {
		return true
	}
	own := GetUserTenantID(ctx)
	return own != "" && own == tenantID
}
