package system

import (
	"context"
	"fmt"
	"strings"
)

const (
	netInfoScript = "netinfo.sh"
	wifiScript    = "wifi.sh"
)

func WiFiIPv4(ctx context.Context, r Runner) (string, error) {
	stdout, stderr, err := r.Run(ctx, netInfoScript, "wifi-ip")
	if err != nil {
		return "", fmt.Errorf("netinfo wifi-ip failed: %v: %s", err, stderr)
	}
	return strings.TrimSpace(stdout), nil
}

// JoinWiFi asks wifi.sh to associate with ssid, refusing access points weaker
// than minAuth. It returns once the script has handed the request to the
// network manager; the address shows up later through WiFiIPv4.
func JoinWiFi(ctx context.Context, r Runner, ssid, password, minAuth string) error {
	ssid = strings.TrimSpace(ssid)
	if ssid == "" {
		return fmt.Errorf("wifi join failed: empty ssid")
	}
	args := []string{"join", ssid, password}
	if minAuth != "" {
		args = append(args, minAuth)
	}
	_, stderr, err := r.Run(ctx, wifiScript, args...)
	if err != nil {
		return fmt.Errorf("wifi join failed: %w: %s", err, strings.TrimSpace(stderr))
	}
	return nil
}

func LeaveWiFi(ctx context.Context, r Runner) error {
	_, stderr, err := r.Run(ctx, wifiScript, "leave")
	if err != nil {
		return fmt.Errorf("wifi leave failed: %v: %s", err, stderr)
	}
	return nil
}
