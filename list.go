package serial

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

var (
	// Device names of UARTs and USB serial adapters
	serialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
		regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
		regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
		regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
		regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
		regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
		regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
		regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
		regexp.MustCompile(`^rs485-\d+$`), // udev aliases used on RS-485 gateways
	}

	// Virtual terminals and other tty devices that are not lines
	excludePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^tty\d+$`),
		regexp.MustCompile(`^console$`),
		regexp.MustCompile(`^ptmx$`),
		regexp.MustCompile(`^pty.*$`),
		regexp.MustCompile(`^pts/.*$`),
	}
)

// ListPorts returns a list of available serial ports on the system
// Filters for communication-capable devices and excludes virtual terminals
func ListPorts() ([]string, error) {
	return listPorts("/dev")
}

func listPorts(devDir string) ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		if !isSerialName(entry.Name()) {
			continue
		}
		fullPath := filepath.Join(devDir, entry.Name())
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}

	sort.Strings(ports)
	return ports, nil
}

// isSerialName reports whether a /dev entry looks like a serial line
func isSerialName(name string) bool {
	for _, p := range excludePatterns {
		if p.MatchString(name) {
			return false
		}
	}
	for _, p := range serialPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// PortInfo describes a serial port and, for USB adapters, the device
// behind it.
type PortInfo struct {
	Name         string
	Path         string
	Description  string
	IsUSB        bool
	VendorID     string
	ProductID    string
	SerialNumber string
	Product      string
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	if !isCharacterDevice(portPath) {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(portPath)
	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Description: getPortDescription(name),
	}

	if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
		enrichUSBInfo(info)
	}

	return info, nil
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	case strings.HasPrefix(name, "rs485-"):
		return "RS-485 Line"
	default:
		return "Serial Port"
	}
}

// enrichUSBInfo fills the USB fields from the system's port enumerator.
// Ports the enumerator does not know are left as they are.
func enrichUSBInfo(info *PortInfo) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return
	}
	applyUSBDetails(info, details)
}

func applyUSBDetails(info *PortInfo, details []*enumerator.PortDetails) {
	for _, d := range details {
		if d == nil || !d.IsUSB {
			continue
		}
		if d.Name != info.Path && filepath.Base(d.Name) != info.Name {
			continue
		}
		info.IsUSB = true
		info.VendorID = strings.ToLower(d.VID)
		info.ProductID = strings.ToLower(d.PID)
		info.SerialNumber = d.SerialNumber
		info.Product = d.Product
		if d.Product != "" {
			info.Description = d.Product
		}
		return
	}
}
