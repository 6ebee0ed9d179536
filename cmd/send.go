/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	serial "github.com/allbin/go-serialscope"
	"github.com/allbin/go-serialscope/internal/tui/components"
	"github.com/allbin/go-serialscope/internal/tui/styles"
	"github.com/allbin/go-serialscope/monitor"
	"github.com/allbin/go-serialscope/numeric"
	"github.com/allbin/go-serialscope/stream"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <port>",
	Short: "Send data to a serial port",
	Long: `Send data to a serial port with configurable options.

This command sends data to the specified serial port. Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serialscope send /dev/ttyUSB0
- Interactive mode: serialscope send /dev/ttyUSB0 (prompts for input)

Data is parsed in the --format given: text is sent as typed with the
--line-ending appended, hex, decimal, octal and binary are byte lists.
With --wait the reply frames received within that time are printed.

Example usage:
  serialscope send "Hello World" /dev/ttyUSB0
  serialscope send "AT+GMR" /dev/ttyUSB0 --line-ending crlf
  serialscope send "01 03 00 00 00 01 84 0A" /dev/ttyUSB0 --format hex --wait 500ms
  echo "test" | serialscope send /dev/ttyUSB0
  serialscope send /dev/ttyUSB0  # Interactive mode`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		var portPath string

		// Parse arguments: either "send data port" or "send port"
		if len(args) == 1 {
			portPath = args[0]
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				data = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		} else {
			data = args[0]
			portPath = args[1]
		}

		formatName, _ := cmd.Flags().GetString("format")
		endingName, _ := cmd.Flags().GetString("line-ending")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		wait, _ := cmd.Flags().GetDuration("wait")

		payload, err := encodeSendData(data, formatName, endingName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid data: %v\n", err)
			os.Exit(1)
		}

		config, opts, err := portConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := sendData(portPath, payload, config, timeout, wait, opts...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().String("format", "text", "Data format: text, hex, decimal, octal, binary")
	sendCmd.Flags().StringP("line-ending", "n", "none", "Line ending appended to text: none, cr, lf, crlf")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for sending data")
	sendCmd.Flags().Duration("wait", 0, "Print reply frames received within this time")
}

func promptForData() string {
	fmt.Print(styles.InfoStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

// encodeSendData parses data in the named format. The line ending only
// applies to text.
func encodeSendData(data, formatName, endingName string) ([]byte, error) {
	format, err := numeric.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	ending, err := numeric.ParseLineEnding(endingName)
	if err != nil {
		return nil, err
	}
	b, err := numeric.ParseBytes(data, format)
	if err != nil {
		return nil, err
	}
	if format == numeric.FormatASCII {
		b = ending.Append(b)
	}
	if len(b) == 0 {
		return nil, errors.New("nothing to send")
	}
	return b, nil
}

func sendData(portPath string, data []byte, config serial.Config, timeout, wait time.Duration, opts ...serial.Option) error {
	infoStyle := styles.InfoStyle
	successStyle := styles.GetStatusStyle(styles.StatusOK)
	errorStyle := styles.GetStatusStyle(styles.StatusFailed)

	fmt.Printf("%s Opening %s (%s)...\n", infoStyle.Render("⚡"), portPath, config)

	port, err := serial.Open(portPath, opts...)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("✗"), err)
	}
	defer port.Close()

	fmt.Printf("%s Connected successfully\n", successStyle.Render("✓"))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Printf("%s Sending %d bytes (%s on the wire)...\n", infoStyle.Render("📤"),
		len(data), config.Timing(false).TransmitTime(len(data)).Round(time.Microsecond))

	n, err := port.WriteContext(ctx, data)
	if err != nil {
		return fmt.Errorf("%s failed to send data: %w", errorStyle.Render("✗"), err)
	}

	fmt.Printf("%s Successfully sent %d bytes\n", successStyle.Render("✓"), n)
	fmt.Printf("%s HEX:   %s\n", infoStyle.Render("📋"), numeric.FormatBytes(data, numeric.FormatHex))
	fmt.Printf("%s ASCII: %s\n", infoStyle.Render("📋"), numeric.FormatBytes(data, numeric.FormatASCII))

	if wait <= 0 {
		return nil
	}
	return awaitReply(port, config, wait)
}

// awaitReply prints the frames received on port within wait.
func awaitReply(port serial.Port, config serial.Config, wait time.Duration) error {
	session, err := monitor.NewSession(monitor.WithTiming(config.Timing(false)))
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	formatter := components.NewDataFormatter(numeric.FormatHex, numeric.FormatASCII)
	count := 0
	err = session.Run(ctx, stream.Pump(ctx, port, stream.DefaultChunkSize), func(r monitor.Record) {
		count++
		fmt.Println(formatter.FormatRecord(r))
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if count == 0 {
		fmt.Printf("No reply within %s\n", wait)
	}
	return nil
}
