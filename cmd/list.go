/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	serial "github.com/allbin/go-serialscope"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

This command scans for communication-capable serial devices including:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- RS-485 line drivers (rs485-*)
- And other platform-specific serial devices

Virtual terminals and pseudo-terminals are excluded from the listing.
With --table, USB adapters show their vendor and product IDs.`,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := serial.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}

		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		filteredPorts := filterPorts(ports, filterType)

		if len(filteredPorts) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return
		}

		if tableFormat {
			renderPortTable(filteredPorts)
		} else {
			renderSimple(filteredPorts)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().String("filter", "", "Filter by port type: usb, standard, arm, rs485, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []string, filterType string) []string {
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		name := strings.ToLower(port[strings.LastIndex(port, "/")+1:])
		if portMatchesFilter(name, strings.ToLower(filterType)) {
			filtered = append(filtered, port)
		}
	}
	return filtered
}

func portMatchesFilter(name, filterType string) bool {
	switch filterType {
	case "usb":
		return strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm")
	case "standard":
		return strings.HasPrefix(name, "ttys") && !strings.HasPrefix(name, "ttysac")
	case "arm":
		return strings.HasPrefix(name, "ttyama")
	case "rs485":
		return strings.HasPrefix(name, "rs485")
	}
	return false
}

// renderPortTable renders the port list in a styled static table format
func renderPortTable(ports []string) {
	fmt.Printf("Found %d serial port(s):\n\n", len(ports))

	columns := []column{
		{key: "port", title: "Port", width: 15},
		{key: "type", title: "Type", width: 16},
		{key: "usb", title: "VID:PID", width: 10},
		{key: "desc", title: "Description", width: 30},
	}

	rows := make([]map[string]any, 0, len(ports))
	for _, port := range ports {
		info, err := serial.GetPortInfo(port)
		if err != nil {
			rows = append(rows, map[string]any{
				"port": port,
				"type": "Unknown",
				"usb":  "",
				"desc": fmt.Sprintf("Error: %v", err),
			})
			continue
		}

		usb := ""
		if info.IsUSB && info.VendorID != "" {
			usb = info.VendorID + ":" + info.ProductID
		}
		rows = append(rows, map[string]any{
			"port": info.Name,
			"type": getPortType(info.Name),
			"usb":  usb,
			"desc": info.Description,
		})
	}

	fmt.Println(renderTable(columns, rows))
}

// renderSimple renders the port list in simple text format
func renderSimple(ports []string) {
	for _, port := range ports {
		fmt.Println(port)
	}
}

// getPortType returns a more specific type classification for the port
func getPortType(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyama"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial"
	case strings.HasPrefix(name, "ttysac"):
		return "Samsung Serial"
	case strings.HasPrefix(name, "ttyths"):
		return "Tegra Serial"
	case strings.HasPrefix(name, "ttyo"):
		return "OMAP Serial"
	case strings.HasPrefix(name, "rs485"):
		return "RS-485"
	case strings.HasPrefix(name, "ttys"):
		return "Standard Serial"
	default:
		return "Serial Port"
	}
}
