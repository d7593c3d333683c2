package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
)

// ClientInfo describes the caller of a payment endpoint, recorded in
// the payment audit trail.
type ClientInfo struct {
	IPAddress  string
	DeviceType string // "mobile", "bot" or "desktop"
	Browser    string
}

// GetRealIP extracts the real client IP address from the request.
//
// Priority order:
// 1. X-Real-IP header (set by reverse proxies like Nginx)
// 2. X-Forwarded-For header (first public IP in the list)
// 3. Gin's ClientIP() (fallback for direct connections)
func GetRealIP(c *gin.Context) string {
	realIP := strings.TrimSpace(c.Request.Header.Get("X-Real-IP"))
	if realIP != "" && isValidIP(realIP) && !isPrivateIP(net.ParseIP(realIP)) {
		return realIP
	}

	forwarded := c.Request.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		for _, ipStr := range ips {
			clientIP := strings.TrimSpace(ipStr)
			if isValidIP(clientIP) && !isPrivateIP(net.ParseIP(clientIP)) {
				return clientIP
			}
		}
		// All IPs private: fall back to the first valid one
		for _, ipStr := range ips {
			clientIP := strings.TrimSpace(ipStr)
			if isValidIP(clientIP) {
				return clientIP
			}
		}
	}

	return c.ClientIP()
}

// GetClientInfo parses the request's network and User-Agent details
func GetClientInfo(c *gin.Context) ClientInfo {
	ua := user_agent.New(c.Request.UserAgent())

	deviceType := "desktop"
	if ua.Bot() {
		deviceType = "bot"
	} else if ua.Mobile() {
		deviceType = "mobile"
	}

	browserName, browserVersion := ua.Browser()
	browser := browserName
	if browserVersion != "" {
		browser = browserName + " " + browserVersion
	}

	return ClientInfo{
		IPAddress:  GetRealIP(c),
		DeviceType: deviceType,
		Browser:    browser,
	}
}

func isValidIP(s string) bool {
	return net.ParseIP(s) != nil
}

func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLoopback()
}
