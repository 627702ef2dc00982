package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the host part of r.RemoteAddr. Forwarding headers are not
// read here: the router runs chi's middleware.RealIP first, which rewrites
// RemoteAddr from them, so a value taken from RemoteAddr is the same one the
// request logger and every limiter see.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
