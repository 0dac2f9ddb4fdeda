package utils

import (
	"net/http"

	"kondapalli/globals"
)

func GetUserIDFromRequest(r *http.Request) string {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

func GetEmailFromRequest(r *http.Request) string {
	email, _ := r.Context().Value(globals.EmailKey).(string)
	return email
}

func GetRoleFromRequest(r *http.Request) string {
	role, _ := r.Context().Value(globals.RoleKey).(string)
	return role
}

func IsAdminRequest(r *http.Request) bool {
	return GetRoleFromRequest(r) == "admin"
}
