/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	serial "github.com/allbin/go-serialscope"
	"github.com/allbin/go-serialscope/internal/tui/components"
	"github.com/allbin/go-serialscope/monitor"
	"github.com/allbin/go-serialscope/stream"
)

var captureFlags displayFlags

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <port> <output-file>",
	Short: "Capture serial frames to a file",
	Long: `Capture serial traffic to a file for later analysis.

Incoming bytes are cut into frames on line silence and written as a YAML
capture when the capture ends: every frame with its timestamp, direction,
hex bytes, highlight matches and, with --modbus, the decoded Modbus RTU
summary. With --raw the bytes are appended to the file as they arrive
instead.

Runs until interrupted (Ctrl+C) or until --duration has passed.

Example usage:
  serialscope capture /dev/ttyUSB0 capture.yaml
  serialscope capture /dev/ttyUSB0 capture.yaml --baud 9600 --parity even --modbus
  serialscope capture /dev/ttyUSB0 capture.yaml --console --duration 1m
  serialscope capture /dev/ttyUSB0 data.log --raw`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		duration, _ := cmd.Flags().GetDuration("duration")
		showConsole, _ := cmd.Flags().GetBool("console")
		raw, _ := cmd.Flags().GetBool("raw")

		if err := runCapture(args[0], args[1], duration, showConsole, raw); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)
	addDisplayFlags(captureCmd, &captureFlags)

	captureCmd.Flags().Duration("duration", 0, "Stop after this long (default: until interrupted)")
	captureCmd.Flags().BoolP("console", "c", false, "Display frames on console while capturing")
	captureCmd.Flags().Bool("raw", false, "Append raw bytes to the output file instead of a YAML capture")
}

func runCapture(portPath, outputPath string, duration time.Duration, showConsole, raw bool) error {
	config, opts, err := portConfig()
	if err != nil {
		return err
	}
	rules, err := highlightRules(captureFlags.highlights)
	if err != nil {
		return err
	}
	views, err := captureFlags.formats()
	if err != nil {
		return err
	}

	session, err := monitor.NewSession(sessionOptions(config, captureFlags.modbus, captureFlags.silence, rules)...)
	if err != nil {
		return err
	}

	// Fail on an unwritable output before touching the line
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if raw {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	file, err := os.OpenFile(outputPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer file.Close()

	port, err := serial.Open(portPath, opts...)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}
	defer port.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, shutting down...\n")
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Fprintf(os.Stderr, "Capturing frames from %s (%s, gap %s) to %s\n",
		portPath, config, session.Silence().Round(time.Microsecond), outputPath)
	if showConsole {
		fmt.Fprintf(os.Stderr, "Console display enabled\n")
	}
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	formatter := components.NewDataFormatter(views...)
	formatter.SetModbus(captureFlags.modbus)
	if captureFlags.noTimestamps {
		formatter.ToggleTimestamps()
	}

	var writeErr error
	startTime := time.Now()
	runErr := session.Run(ctx, stream.Pump(ctx, port, stream.DefaultChunkSize), func(r monitor.Record) {
		if raw && writeErr == nil {
			_, writeErr = file.Write(r.Frame.Bytes())
		}
		if showConsole {
			fmt.Println(formatter.FormatRecord(r))
		}
	})

	stats := session.Stats()
	fmt.Fprintf(os.Stderr, "\nCapture complete: %d frames, %d bytes in %v\n",
		stats.RXFrames, stats.RXBytes, time.Since(startTime).Round(time.Millisecond))

	if writeErr != nil {
		return fmt.Errorf("write error: %w", writeErr)
	}
	if !raw {
		c := session.Capture(monitor.CaptureOptions{Port: portPath, Modbus: captureFlags.modbus})
		if err := monitor.Export(file, c); err != nil {
			return fmt.Errorf("write capture: %w", err)
		}
		if c.Stats.Evicted > 0 {
			fmt.Fprintf(os.Stderr, "Only the last %d frames were kept (monitor.history is %d)\n",
				len(c.Frames), viper.GetInt("monitor.history"))
		}
	}
	return runErr
}
