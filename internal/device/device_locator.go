package device

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:generate mockgen -source=device_locator.go -destination=mock/device_locator_mock.go -package=mock
type Locator interface {
	Locate(address string) (DeviceLocation, bool)
}

type staticLocator struct {
	byAddr map[string]DeviceLocation
}

// NewStaticLocator builds an immutable lookup table. Reads need no locking.
func NewStaticLocator(locations []DeviceLocation) (Locator, error) {
	byAddr := make(map[string]DeviceLocation, len(locations))
	for i, loc := range locations {
		addr := NormalizeAddress(loc.Address)
		if addr == "" {
			return nil, fmt.Errorf("device #%d: address is required", i)
		}
		if !loc.Direction.Valid() {
			return nil, fmt.Errorf("device %s: invalid direction %q", addr, loc.Direction)
		}
		if _, dup := byAddr[addr]; dup {
			return nil, fmt.Errorf("device %s: duplicate address", addr)
		}
		loc.Address = addr
		byAddr[addr] = loc
	}
	return &staticLocator{byAddr: byAddr}, nil
}

func (l *staticLocator) Locate(address string) (DeviceLocation, bool) {
	loc, ok := l.byAddr[NormalizeAddress(address)]
	return loc, ok
}

type deviceTable struct {
	Devices []DeviceLocation `yaml:"devices"`
}

// LoadLocations reads a YAML device table:
//
//	devices:
//	  - address: 192.168.1.190
//	    site: Makon
//	    door: Main door
//	    direction: entry
func LoadLocations(path string) ([]DeviceLocation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read device table: %w", err)
	}
	var table deviceTable
	if err := yaml.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("parse device table %s: %w", path, err)
	}
	if len(table.Devices) == 0 {
		return nil, fmt.Errorf("device table %s has no devices", path)
	}
	for i := range table.Devices {
		table.Devices[i].Direction = Direction(strings.ToLower(strings.TrimSpace(string(table.Devices[i].Direction))))
	}
	return table.Devices, nil
}

// NewLocatorFromConfig loads the table at path, or the defaults when path is empty.
func NewLocatorFromConfig(path string) (Locator, error) {
	if path == "" {
		return NewStaticLocator(DefaultLocations)
	}
	locations, err := LoadLocations(path)
	if err != nil {
		return nil, err
	}
	return NewStaticLocator(locations)
}

// NormalizeAddress strips ports and the IPv4-mapped IPv6 prefix so
// "[::ffff:192.168.1.190]:51234" and "192.168.1.190" are the same key.
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	addr = strings.Trim(addr, "[]")
	if ip := net.ParseIP(addr); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
		return ip.String()
	}
	return addr
}
