package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/helpdesk/backend/internal/interfaces/http/dto"
)

// AllowIPs restricts a route to the listed addresses. Entries are single IPs or
// CIDR ranges; an empty list lets everyone through.
func AllowIPs(entries []string) (gin.HandlerFunc, error) {
	var (
		allowedIPs  []net.IP
		allowedNets []*net.IPNet
	)
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %q: %w", entry, err)
			}
			allowedNets = append(allowedNets, network)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP %q", entry)
		}
		allowedIPs = append(allowedIPs, ip)
	}

	if len(allowedIPs) == 0 && len(allowedNets) == 0 {
		return func(c *gin.Context) { c.Next() }, nil
	}

	return func(c *gin.Context) {
		if !isIPAllowed(clientIP(c), allowedIPs, allowedNets) {
			abort(c, http.StatusForbidden, dto.ErrCodeForbidden, "Access restricted")
			return
		}
		c.Next()
	}, nil
}

// clientIP prefers gin's ClientIP, which honours trusted proxies, and falls
// back to the socket address
func clientIP(c *gin.Context) net.IP {
	if ip := net.ParseIP(c.ClientIP()); ip != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		host = c.Request.RemoteAddr
	}
	return net.ParseIP(host)
}

func isIPAllowed(ip net.IP, allowedIPs []net.IP, allowedNets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, allowed := range allowedIPs {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, network := range allowedNets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
