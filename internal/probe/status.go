package probe

import "fmt"

var statusMessages = map[int]string{
	200: "OK - Application is functioning correctly",
	201: "Created - Request successful",
	204: "No Content - Request successful",
	301: "Moved Permanently - Redirect",
	302: "Found - Temporary redirect",
	400: "Bad Request - Invalid request",
	401: "Unauthorized - Authentication required",
	403: "Forbidden - Access denied",
	404: "Not Found - Resource does not exist",
	500: "Internal Server Error - Application error",
	502: "Bad Gateway - Upstream server error",
	503: "Service Unavailable - Application temporarily unavailable",
	504: "Gateway Timeout - Upstream timeout",
}

// StatusMessage returns a human-readable description of an HTTP status code.
func StatusMessage(code int) string {
	if m, ok := statusMessages[code]; ok {
		return m
	}
	return fmt.Sprintf("HTTP %d", code)
}
