package lifecycle

import (
	"strings"

	"ewaste/internal/models"
)

// StatusAll is the filter value that matches every status.
const StatusAll = "ALL"

// Matches implements the list filter shared by the dashboards: the status
// filter is an exact match (or ALL), the search term a case-insensitive
// substring test over the record's descriptive fields. Empty search always
// matches.
func Matches(status string, fields []string, statusFilter, searchTerm string) bool {
	if statusFilter != StatusAll && status != statusFilter {
		return false
	}
	if searchTerm == "" {
		return true
	}
	needle := strings.ToLower(searchTerm)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// FilterRequests keeps the input order and searches over device type, brand
// and the requesting user's name, matching what each screen concatenates.
func FilterRequests(requests []models.Request, statusFilter, searchTerm string) []models.Request {
	var out []models.Request
	for _, r := range requests {
		if Matches(r.Status, []string{r.DeviceType, r.Brand, r.UserName}, statusFilter, searchTerm) {
			out = append(out, r)
		}
	}
	return out
}

// FilterUsers searches over name and email, preserving input order.
func FilterUsers(users []models.User, statusFilter, searchTerm string) []models.User {
	var out []models.User
	for _, u := range users {
		if Matches(u.Status, []string{u.Name, u.Email}, statusFilter, searchTerm) {
			out = append(out, u)
		}
	}
	return out
}
