// Package device derives a stable identifier for this machine, used to tag
// watch-daemon log lines and the generated config.
package device

import (
	"errors"
	"net"
	"strings"

	"github.com/google/uuid"
)

// ID returns the MAC address of the first usable network interface, or a
// random UUID when none is available. Callers persist the result so the id
// stays stable even on machines without a fixed interface.
func ID() string {
	if mac, err := macAddress(); err == nil {
		return strings.ReplaceAll(mac, ":", "-")
	}
	return uuid.NewString()
}

func macAddress() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 {
			continue
		}
		return iface.HardwareAddr.String(), nil
	}

	return "", errors.New("no valid network interface found")
}
