package serial

import (
	"errors"
	"os"
	"strings"
	"testing"

	"go.bug.st/serial/enumerator"
)

func TestListPorts(t *testing.T) {
	ports, err := ListPorts()
	if err != nil {
		t.Errorf("ListPorts failed: %v", err)
	}

	for _, port := range ports {
		if !strings.HasPrefix(port, "/dev/") {
			t.Errorf("Port path doesn't start with /dev/: %s", port)
		}
		if !isCharacterDevice(port) {
			t.Errorf("Port is not a character device: %s", port)
		}
	}

	for i := 1; i < len(ports); i++ {
		if ports[i-1] > ports[i] {
			t.Errorf("Ports are not sorted: %s > %s", ports[i-1], ports[i])
		}
	}
}

func TestListPortsSkipsRegularFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ttyUSB0", "ttyS1", "tty1"} {
		if err := os.WriteFile(dir+"/"+name, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	ports, err := listPorts(dir)
	if err != nil {
		t.Fatalf("listPorts failed: %v", err)
	}
	if len(ports) != 0 {
		t.Errorf("expected no ports from regular files, got %v", ports)
	}

	if _, err := listPorts(dir + "/missing"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestIsCharacterDevice(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/dev/null", true},
		{"/dev/zero", true},
		{"/tmp", false},
		{"/nonexistent", false},
	}

	for _, test := range tests {
		result := isCharacterDevice(test.path)
		if result != test.expected {
			t.Errorf("isCharacterDevice(%s) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestGetPortDescription(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"ttyUSB0", "USB Serial Port"},
		{"ttyACM0", "USB CDC/ACM Device"},
		{"ttyS0", "Standard Serial Port"},
		{"ttyAMA0", "ARM Serial Port"},
		{"ttymxc0", "i.MX Serial Port"},
		{"ttyO0", "OMAP Serial Port"},
		{"ttySAC0", "Samsung Serial Port"},
		{"ttyTHS0", "Tegra Serial Port"},
		{"rs485-1", "RS-485 Line"},
		{"unknown", "Serial Port"},
	}

	for _, test := range tests {
		result := getPortDescription(test.name)
		if result != test.expected {
			t.Errorf("getPortDescription(%s) = %s, expected %s", test.name, result, test.expected)
		}
	}
}

func TestGetPortInfo(t *testing.T) {
	info, err := GetPortInfo("/dev/null")
	if err != nil {
		t.Fatalf("GetPortInfo failed for /dev/null: %v", err)
	}

	if info.Name != "null" {
		t.Errorf("Expected name 'null', got '%s'", info.Name)
	}
	if info.Path != "/dev/null" {
		t.Errorf("Expected path '/dev/null', got '%s'", info.Path)
	}
	if info.Description == "" {
		t.Error("Description should not be empty")
	}
	if info.IsUSB {
		t.Error("/dev/null reported as USB")
	}

	_, err = GetPortInfo("/dev/nonexistent")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Expected ErrDeviceNotFound, got %v", err)
	}
}

func TestApplyUSBDetails(t *testing.T) {
	details := []*enumerator.PortDetails{
		nil,
		{Name: "/dev/ttyS0"},
		{Name: "/dev/ttyUSB1", IsUSB: true, VID: "0403", PID: "6001", SerialNumber: "B001"},
		{Name: "/dev/ttyUSB0", IsUSB: true, VID: "1A86", PID: "7523", SerialNumber: "A123", Product: "USB2.0-Serial"},
	}

	info := &PortInfo{Name: "ttyUSB0", Path: "/dev/ttyUSB0", Description: "USB Serial Port"}
	applyUSBDetails(info, details)

	if !info.IsUSB {
		t.Fatal("expected USB details to be applied")
	}
	if info.VendorID != "1a86" || info.ProductID != "7523" {
		t.Errorf("VID:PID = %s:%s, want 1a86:7523", info.VendorID, info.ProductID)
	}
	if info.SerialNumber != "A123" {
		t.Errorf("SerialNumber = %q", info.SerialNumber)
	}
	if info.Description != "USB2.0-Serial" {
		t.Errorf("Description = %q, want product name", info.Description)
	}

	other := &PortInfo{Name: "ttyACM3", Path: "/dev/ttyACM3", Description: "USB CDC/ACM Device"}
	applyUSBDetails(other, details)
	if other.IsUSB || other.Description != "USB CDC/ACM Device" {
		t.Errorf("unmatched port modified: %+v", other)
	}
}

func TestPortFiltering(t *testing.T) {
	testDevices := []struct {
		name        string
		shouldMatch bool
	}{
		{"ttyUSB0", true},
		{"ttyUSB1", true},
		{"ttyACM0", true},
		{"ttyS0", true},
		{"ttyAMA0", true},
		{"rs485-0", true},
		{"tty1", false},
		{"tty2", false},
		{"console", false},
		{"ptmx", false},
		{"ptyp0", false},
		{"random", false},
		{"urandom", false},
	}

	for _, device := range testDevices {
		if got := isSerialName(device.name); got != device.shouldMatch {
			t.Errorf("isSerialName(%s) = %v, want %v", device.name, got, device.shouldMatch)
		}
	}
}

func BenchmarkListPorts(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := ListPorts()
		if err != nil {
			b.Errorf("ListPorts failed: %v", err)
		}
	}
}

func TestListPortsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts failed: %v", err)
	}

	t.Logf("Found %d serial ports:", len(ports))
	for i, port := range ports {
		info, err := GetPortInfo(port)
		if err != nil {
			t.Logf("  %d. %s (error getting info: %v)", i+1, port, err)
		} else {
			t.Logf("  %d. %s (%s)", i+1, port, info.Description)
		}
	}
}
