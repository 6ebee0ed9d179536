/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	serial "github.com/allbin/go-serialscope"
	"github.com/allbin/go-serialscope/internal/tui/styles"
	"github.com/allbin/go-serialscope/modbus"
	"github.com/allbin/go-serialscope/numeric"
)

// modbusCmd represents the modbus command
var modbusCmd = &cobra.Command{
	Use:   "modbus <port>",
	Short: "Send Modbus RTU requests and decode the replies",
	Long: `Act as a Modbus RTU master on a serial line.

A request is built from --slave, --function, --address, --quantity and
--values, or taken from a named preset. The request is sent, retried on
timeout and the reply is checked and decoded: registers are listed as
unsigned, signed and hex, optionally combined into wider types with --as.
Exception replies are reported with their code.

With --repeat the request is sent periodically until interrupted or until
--count requests have been made, and the transaction counters are printed
at the end.

Functions may be given by number or name: coils (1), discrete (2),
holding (3), input (4), write-coil (5), write-register (6),
write-coils (15), write-registers (16).

Example usage:
  serialscope modbus /dev/ttyUSB0 --baud 9600 --parity even --slave 1 --function holding --address 0 --quantity 2
  serialscope modbus /dev/ttyUSB0 --function write-register --address 10 --values 0x1234
  serialscope modbus /dev/ttyUSB0 --quantity 2 --as float32 --repeat 1s
  serialscope modbus /dev/ttyUSB0 --function input --quantity 4 --save-preset sensors
  serialscope modbus /dev/ttyUSB0 --preset sensors`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runModbus(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(modbusCmd)

	f := modbusCmd.Flags()
	f.Uint8P("slave", "s", 1, "Slave address, 0 for broadcast")
	f.String("function", "holding", "Function code or name")
	f.Uint16P("address", "a", 0, "Starting address")
	f.Uint16P("quantity", "q", 1, "Number of coils or registers to read")
	f.StringSlice("values", nil, "Values to write, comma separated (0x prefix for hex)")
	f.Duration("timeout", time.Second, "Response timeout")
	f.Int("retries", 2, "Resends after a timeout")
	f.Duration("repeat", 0, "Send the request periodically at this interval")
	f.Int("count", 0, "Stop after this many requests when repeating (0: until interrupted)")
	f.String("as", "", "Combine registers into this type: int32, uint32, float32, int64, uint64, float64")
	f.Bool("swap-words", false, "Low word first when combining registers")
	f.String("preset", "", "Use a named request from the presets file")
	f.String("presets", "", "Presets file (default is $HOME/.serialscope-presets.yaml)")
	f.String("save-preset", "", "Save the request under this name in the presets file")
	f.Bool("frames", false, "Print every frame sent and received")
	f.Bool("fixed-gap", false, "Use the fixed 1.75ms frame gap above 19200 baud")

	_ = viper.BindPFlag("modbus.timeout", f.Lookup("timeout"))
	_ = viper.BindPFlag("modbus.retries", f.Lookup("retries"))
	_ = viper.BindPFlag("modbus.fixed_gap", f.Lookup("fixed-gap"))
}

var functionAliases = map[string]modbus.FunctionCode{
	"coils":           modbus.ReadCoils,
	"discrete":        modbus.ReadDiscreteInputs,
	"holding":         modbus.ReadHoldingRegisters,
	"input":           modbus.ReadInputRegisters,
	"write-coil":      modbus.WriteSingleCoil,
	"write-register":  modbus.WriteSingleRegister,
	"write-coils":     modbus.WriteMultipleCoils,
	"write-registers": modbus.WriteMultipleRegisters,
}

func parseFunction(s string) (modbus.FunctionCode, error) {
	if fn, ok := functionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return fn, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown function %q", modbus.ErrInvalidRequest, s)
	}
	return modbus.FunctionCode(n), nil
}

func parseValues(values []string) ([]uint16, error) {
	out := make([]uint16, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if n, err := strconv.ParseInt(v, 0, 17); err == nil && n < 0 && n >= -0x8000 {
			out = append(out, uint16(int16(n)))
			continue
		}
		n, err := strconv.ParseUint(v, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", v, err)
		}
		out = append(out, uint16(n))
	}
	return out, nil
}

func presetsPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("presets"); p != "" {
		return p
	}
	if p := viper.GetString("modbus.presets"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".serialscope-presets.yaml"
	}
	return filepath.Join(home, ".serialscope-presets.yaml")
}

func loadPresets(path string) ([]modbus.Preset, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return modbus.LoadPresets(f)
}

func savePreset(path string, p modbus.Preset) error {
	presets, err := loadPresets(path)
	if err != nil {
		return err
	}
	replaced := false
	for i := range presets {
		if strings.EqualFold(presets[i].Name, p.Name) {
			presets[i], replaced = p, true
		}
	}
	if !replaced {
		presets = append(presets, p)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := modbus.SavePresets(f, presets); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// modbusPreset assembles the request from the preset or the flags.
func modbusPreset(cmd *cobra.Command, path string) (modbus.Preset, error) {
	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		presets, err := loadPresets(path)
		if err != nil {
			return modbus.Preset{}, err
		}
		p, err := modbus.FindPreset(presets, name)
		if err != nil {
			return modbus.Preset{}, err
		}
		if cmd.Flags().Changed("repeat") {
			p.Repeat, _ = cmd.Flags().GetDuration("repeat")
		}
		return p, nil
	}

	fnName, _ := cmd.Flags().GetString("function")
	fn, err := parseFunction(fnName)
	if err != nil {
		return modbus.Preset{}, err
	}
	rawValues, _ := cmd.Flags().GetStringSlice("values")
	values, err := parseValues(rawValues)
	if err != nil {
		return modbus.Preset{}, err
	}

	p := modbus.Preset{Function: fn, Values: values}
	p.Slave, _ = cmd.Flags().GetUint8("slave")
	p.Address, _ = cmd.Flags().GetUint16("address")
	p.Repeat, _ = cmd.Flags().GetDuration("repeat")
	if len(values) == 0 {
		p.Quantity, _ = cmd.Flags().GetUint16("quantity")
	}
	return p, nil
}

func runModbus(cmd *cobra.Command, portPath string) error {
	path := presetsPath(cmd)
	preset, err := modbusPreset(cmd, path)
	if err != nil {
		return err
	}
	req, err := preset.Request()
	if err != nil {
		return err
	}

	if name, _ := cmd.Flags().GetString("save-preset"); name != "" {
		preset.Name = name
		if err := savePreset(path, preset); err != nil {
			return fmt.Errorf("save preset: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved preset %q to %s\n", name, path)
	}

	asName, _ := cmd.Flags().GetString("as")
	swapWords, _ := cmd.Flags().GetBool("swap-words")
	var combine *numeric.View
	if asName != "" {
		v, err := parseView(asName, numeric.BigEndian)
		if err != nil {
			return err
		}
		combine = &v
	}

	config, opts, err := portConfig()
	if err != nil {
		return err
	}
	port, err := serial.Open(portPath, opts...)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}
	defer port.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	showFrames, _ := cmd.Flags().GetBool("frames")
	timing := config.Timing(true)
	timing.FixedAboveBaud = viper.GetBool("modbus.fixed_gap")
	client, err := modbus.NewClient(ctx, port,
		modbus.WithTiming(timing),
		modbus.WithTimeout(viper.GetDuration("modbus.timeout")),
		modbus.WithRetries(viper.GetInt("modbus.retries")),
		modbus.WithLogger(slog.Default()),
		modbus.WithObserver(func(ev modbus.Event) {
			if showFrames {
				printEvent(ev)
			}
		}),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintf(os.Stderr, "%s on %s (%s, gap %s)\n", req.Function, portPath, config,
		client.Silence().Round(time.Microsecond))

	count, _ := cmd.Flags().GetInt("count")
	for n := 1; ; n++ {
		start := time.Now()
		resp, err := client.Do(ctx, req)
		switch {
		case errors.Is(err, modbus.ErrCancelled) && ctx.Err() != nil:
			printCounters(client.Counters())
			return nil
		case err != nil:
			fmt.Println(styles.GetStatusStyle(styles.StatusFailed).Render(fmt.Sprintf("✗ %v", err)))
		default:
			printResponse(req, resp, time.Since(start), combine, swapWords)
		}

		if preset.Repeat <= 0 || (count > 0 && n >= count) {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Until(start.Add(preset.Repeat))):
		}
		if ctx.Err() != nil {
			break
		}
	}

	if preset.Repeat > 0 {
		printCounters(client.Counters())
	}
	return nil
}

func printEvent(ev modbus.Event) {
	b := ev.Frame.Bytes()
	line := fmt.Sprintf("%s %s %s", ev.Frame.Timestamp().Format("15:04:05.000"), ev.Frame.Direction(),
		numeric.FormatBytes(b, numeric.FormatHex))
	if ev.Attempt > 1 {
		line += fmt.Sprintf(" (attempt %d)", ev.Attempt)
	}
	if ev.Response != nil && ev.Response.Validity != modbus.Ok {
		line += " " + ev.Response.Validity.String()
	}
	fmt.Fprintln(os.Stderr, line)
}

func printResponse(req modbus.Request, resp modbus.Response, elapsed time.Duration, combine *numeric.View, swapWords bool) {
	ok := styles.GetStatusStyle(styles.StatusOK)
	if req.IsBroadcast() {
		fmt.Println(ok.Render("✓ broadcast sent"))
		return
	}
	if err := resp.Err(); err != nil {
		fmt.Println(styles.GetStatusStyle(styles.StatusFailed).Render(fmt.Sprintf("✗ slave %d: %v", resp.SlaveID, err)))
		return
	}
	fmt.Println(ok.Render(fmt.Sprintf("✓ slave %d %s in %s", resp.SlaveID, resp.Function, elapsed.Round(time.Millisecond))))

	address := addressOf(req)
	switch resp.Function {
	case modbus.ReadCoils, modbus.ReadDiscreteInputs:
		bits, err := resp.Bits(int(quantityOf(req)))
		if err != nil {
			fmt.Printf("  %v\n", err)
			return
		}
		rows := make([]map[string]any, 0, len(bits))
		for i, on := range bits {
			state := "off"
			if on {
				state = "ON"
			}
			rows = append(rows, map[string]any{"addr": strconv.Itoa(int(address) + i), "state": state})
		}
		fmt.Println(renderTable([]column{{key: "addr", title: "Address", width: 8}, {key: "state", title: "State", width: 6}}, rows))

	case modbus.ReadHoldingRegisters, modbus.ReadInputRegisters:
		regs, err := resp.Registers()
		if err != nil {
			fmt.Printf("  %v\n", err)
			return
		}
		fmt.Println(renderTable(registerColumns, registerRows(address, regs)))
		if combine != nil {
			printCombined(regs, *combine, swapWords)
		}

	default:
		if addr, value, err := resp.Echo(); err == nil {
			fmt.Printf("  address %d value %d (0x%04X)\n", addr, value, value)
		}
	}
}

var registerColumns = []column{
	{key: "addr", title: "Address", width: 8},
	{key: "hex", title: "Hex", width: 6},
	{key: "uint", title: "Unsigned", width: 8},
	{key: "int", title: "Signed", width: 8},
}

func registerRows(address uint16, regs []uint16) []map[string]any {
	rows := make([]map[string]any, 0, len(regs))
	for i, r := range regs {
		rows = append(rows, map[string]any{
			"addr": strconv.Itoa(int(address) + i),
			"hex":  fmt.Sprintf("%04X", r),
			"uint": strconv.Itoa(int(r)),
			"int":  strconv.Itoa(int(int16(r))),
		})
	}
	return rows
}

// printCombined reads consecutive registers as wider values.
func printCombined(regs []uint16, v numeric.View, swapWords bool) {
	words := v.Size() / 2
	for i := 0; i+words <= len(regs); i += words {
		group := append([]uint16(nil), regs[i:i+words]...)
		if swapWords {
			for l, r := 0, len(group)-1; l < r; l, r = l+1, r-1 {
				group[l], group[r] = group[r], group[l]
			}
		}
		val, err := numeric.Decode(modbus.PackRegisters(group), v)
		if err != nil {
			fmt.Printf("  %v\n", err)
			return
		}
		fmt.Printf("  [%d..%d] %s = %s\n", i, i+words-1, v, val)
	}
}

func addressOf(req modbus.Request) uint16 {
	if len(req.Payload) < 2 {
		return 0
	}
	return uint16(req.Payload[0])<<8 | uint16(req.Payload[1])
}

func quantityOf(req modbus.Request) uint16 {
	if len(req.Payload) < 4 {
		return 0
	}
	return uint16(req.Payload[2])<<8 | uint16(req.Payload[3])
}

func printCounters(c *modbus.Counters) {
	snap := c.Snapshot()
	var parts []string
	for i := modbus.CntRequests; i <= modbus.CntBusy; i++ {
		if n := snap[i.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", i, n))
		}
	}
	fmt.Fprintf(os.Stderr, "Counters: %s\n", strings.Join(parts, " "))
}
