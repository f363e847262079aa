// AngelaMos | 2026
// dto.go

package admin

type PlatformTotals struct {
	Tenants       int `db:"tenants"        json:"tenants"`
	ActiveTenants int `db:"active_tenants" json:"active_tenants"`
	Users         int `db:"users"          json:"users"`
	Medicines     int `db:"medicines"      json:"medicines"`
	Prescriptions int `db:"prescriptions"  json:"prescriptions"`
}

type PlanCount struct {
	Plan    string `db:"subscription_plan" json:"plan"`
	Tenants int    `db:"tenants"           json:"tenants"`
}

type PlatformStats struct {
	Totals PlatformTotals `json:"totals"`
	ByPlan []PlanCount    `json:"by_plan"`
}

type SystemStatsResponse struct {
	Platform *PlatformStats `json:"platform,omitempty"`
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

type PurgeResponse struct {
	Deleted int64 `json:"deleted"`
}
