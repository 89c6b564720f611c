package models

// DashboardSummary backs the admin overview cards.
type DashboardSummary struct {
	TotalUsers         int            `json:"total_users"`
	TotalPickupPersons int            `json:"total_pickup_persons"`
	TotalRequests      int            `json:"total_requests"`
	StatusStats        map[string]int `json:"status_stats"`
	DeviceStats        map[string]int `json:"device_stats"`
}

// RequestStats is the per-user status breakdown shown on the user dashboard.
type RequestStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}
