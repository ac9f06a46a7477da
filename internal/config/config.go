package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DeviceProfile describes one device identity plus its gateway endpoint.
type DeviceProfile struct {
	ModuleID uint32 `toml:"module_id"`
	Hostname string `toml:"hostname"`
	Port     string `toml:"port"`
	Name     string `toml:"device_name"`
	Type     uint32 `toml:"device_type"`
	Role     string `toml:"device_role"`
	Priority uint32 `toml:"device_priority"`
}

// LoadDeviceProfile reads and validates one device profile from a TOML file.
func LoadDeviceProfile(path string) (DeviceProfile, error) {
	var profile DeviceProfile
	if err := loadToml(path, &profile); err != nil {
		return DeviceProfile{}, err
	}
	if profile.Hostname == "" {
		profile.Hostname = "127.0.0.1"
	}
	if err := ValidateDeviceProfile(profile); err != nil {
		return DeviceProfile{}, err
	}
	return profile, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateDeviceProfile(profile DeviceProfile) error {
	if strings.TrimSpace(profile.Name) == "" {
		return fmt.Errorf("device profile missing device_name")
	}
	if strings.TrimSpace(profile.Role) == "" {
		return fmt.Errorf("device profile missing device_role")
	}
	if strings.TrimSpace(profile.Hostname) == "" {
		return fmt.Errorf("device profile missing hostname")
	}
	if _, err := ParsePort(profile.Port); err != nil {
		return err
	}
	return nil
}

// ParsePort validates a decimal port string.
func ParsePort(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("device profile missing port")
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", raw, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

// GatewayAddr joins the profile's hostname and port into a dial address.
func (p DeviceProfile) GatewayAddr() string {
	return net.JoinHostPort(p.Hostname, strings.TrimSpace(p.Port))
}
