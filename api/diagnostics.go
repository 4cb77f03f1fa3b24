package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"
	"time"
)

const reachabilityProbeTimeout = 5 * time.Second

// DiagnosticsReport is the outcome of the connectivity remediation flow the
// UI offers after a failed request: check connectivity, check server
// reachability, suggest fixes.
type DiagnosticsReport struct {
	NetworkAvailable bool     `json:"network_available"`
	ServerReachable  bool     `json:"server_reachable"`
	Host             string   `json:"host"`
	Port             string   `json:"port"`
	Remediation      []string `json:"remediation,omitempty"`
}

// NetworkAvailable reports whether the machine has any non-loopback
// interface that is up. Best effort; errors count as "no network".
func NetworkAvailable() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return true
		}
	}
	return false
}

// ServerReachable probes the API host with a plain TCP connect.
func ServerReachable(ctx context.Context, host, port string, timeout time.Duration) bool {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		log.Printf("api: server %s:%s not reachable: %v", host, port, err)
		return false
	}
	conn.Close()
	return true
}

// Diagnose runs the full diagnostic flow against the configured backend.
func (c *Client) Diagnose(ctx context.Context) DiagnosticsReport {
	report := DiagnosticsReport{}

	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		report.Remediation = append(report.Remediation, fmt.Sprintf("API base URL %q is not a valid URL", c.baseURL))
		return report
	}
	report.Host = parsed.Hostname()
	report.Port = parsed.Port()
	if report.Port == "" {
		if strings.EqualFold(parsed.Scheme, "https") {
			report.Port = "443"
		} else {
			report.Port = "80"
		}
	}

	report.NetworkAvailable = NetworkAvailable()
	if !report.NetworkAvailable {
		report.Remediation = append(report.Remediation,
			"no network connection detected",
			"check that Wi-Fi or wired networking is enabled and connected")
		return report
	}

	report.ServerReachable = ServerReachable(ctx, report.Host, report.Port, reachabilityProbeTimeout)
	if !report.ServerReachable {
		report.Remediation = append(report.Remediation,
			fmt.Sprintf("server %s:%s did not accept a connection", report.Host, report.Port),
			"the server may be down or restarting",
			"a firewall may be blocking the connection",
			"verify the configured API address and port")
	}

	return report
}
