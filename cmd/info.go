/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	serial "github.com/allbin/go-serialscope"
	"github.com/allbin/go-serialscope/internal/tui/styles"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata
and the line timing for the configured settings.

Examples:
  serialscope info /dev/ttyUSB0
  serialscope info /dev/ttyUSB0 --baud 9600 --parity even

For USB devices, this displays vendor/product IDs, serial number and
product name as reported by the system port enumerator.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		portPath := args[0]

		info, err := serial.GetPortInfo(portPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting port info: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(styles.TitleStyle.Render("Port Information: " + info.Path))
		fmt.Println()
		fmt.Printf("  Name:        %s\n", info.Name)
		fmt.Printf("  Description: %s\n", info.Description)

		if info.IsUSB {
			fmt.Println("\nUSB Device Information:")
			if info.VendorID != "" {
				fmt.Printf("  Vendor ID:    %s\n", info.VendorID)
			}
			if info.ProductID != "" {
				fmt.Printf("  Product ID:   %s\n", info.ProductID)
			}
			if info.SerialNumber != "" {
				fmt.Printf("  Serial:       %s\n", info.SerialNumber)
			}
			if info.Product != "" {
				fmt.Printf("  Product:      %s\n", info.Product)
			}
		}

		config, _, err := portConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		timing := config.Timing(false)
		fmt.Println("\nLine Timing:")
		fmt.Printf("  Settings:     %s\n", config)
		fmt.Printf("  Character:    %d bits, %s\n", timing.CharBits(), timing.CharTime())
		fmt.Printf("  Frame gap:    %s\n", timing.Silence())
		fmt.Printf("  Modbus gap:   %s\n", config.Timing(true).Silence())
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
