/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	serial "github.com/allbin/go-serialscope"
	"github.com/allbin/go-serialscope/monitor"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialscope",
	Short: "Serial line monitor and Modbus RTU toolkit",
	Long: `serialscope watches, decodes and drives serial lines.

Frames are cut from the byte stream on line silence (3.5 character times),
rendered in hex, decimal, octal, binary or ASCII, matched against highlight
rules and, on Modbus RTU lines, checked and decoded.

Line settings are shared by every command and can come from flags, from
SERIALSCOPE_* environment variables or from a config file:

  # ~/.serialscope.yaml
  baud: 9600
  parity: even
  modbus:
    timeout: 500ms
    retries: 3
  monitor:
    history: 5000
    highlights:
      - name: ack
        pattern: "06"
        format: hex`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.serialscope.yaml)")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")
	pf.IntP("baud", "b", 115200, "Baud rate")
	pf.Int("data-bits", 8, "Data bits: 5, 6, 7 or 8")
	pf.String("parity", "none", "Parity: none, odd, even")
	pf.Int("stop-bits", 1, "Stop bits: 1 or 2")
	pf.StringP("flow-control", "f", "none", "Flow control: none, rtscts")
	pf.Duration("read-timeout", 100*time.Millisecond, "Port read timeout, multiple of 100ms")

	for _, name := range []string{"log-level", "baud", "data-bits", "parity", "stop-bits", "flow-control", "read-timeout"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	viper.SetDefault("modbus.timeout", time.Second)
	viper.SetDefault("modbus.retries", 2)
	viper.SetDefault("monitor.history", monitor.DefaultCapacity)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".serialscope")
	}

	viper.SetEnvPrefix("SERIALSCOPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
		return
	}
	slog.Debug("using config file", "path", viper.ConfigFileUsed())
}

func setupLogging() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// portConfig assembles the line settings from flags, environment and
// config file.
func portConfig() (serial.Config, []serial.Option, error) {
	parity, err := serial.ParseParity(viper.GetString("parity"))
	if err != nil {
		return serial.Config{}, nil, err
	}
	flow, err := serial.ParseFlowControl(viper.GetString("flow-control"))
	if err != nil {
		return serial.Config{}, nil, err
	}

	opts := []serial.Option{
		serial.WithBaudRate(viper.GetInt("baud")),
		serial.WithDataBits(viper.GetInt("data-bits")),
		serial.WithParity(parity),
		serial.WithStopBits(viper.GetInt("stop-bits")),
		serial.WithFlowControl(flow),
		serial.WithReadTimeout(viper.GetDuration("read-timeout")),
	}

	config := serial.DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return serial.Config{}, nil, fmt.Errorf("line settings: %w", err)
		}
	}
	return config, opts, nil
}

// highlightRules returns the configured rules plus any given as
// name=pattern[:format] flag values.
func highlightRules(flagValues []string) ([]monitor.Rule, error) {
	var rules []monitor.Rule
	if err := viper.UnmarshalKey("monitor.highlights", &rules); err != nil {
		return nil, fmt.Errorf("monitor.highlights: %w", err)
	}
	for _, v := range flagValues {
		r, err := parseHighlightFlag(v)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func parseHighlightFlag(v string) (monitor.Rule, error) {
	name, rest, ok := strings.Cut(v, "=")
	if !ok || name == "" || rest == "" {
		return monitor.Rule{}, fmt.Errorf("%w: %q, want name=pattern[:format]", monitor.ErrInvalidRule, v)
	}
	r := monitor.Rule{Name: name, Pattern: rest, Format: monitor.PatternText}
	if i := strings.LastIndex(rest, ":"); i > 0 {
		switch f := monitor.PatternFormat(strings.ToLower(rest[i+1:])); f {
		case monitor.PatternText, monitor.PatternHex, monitor.PatternDecimal:
			r.Pattern, r.Format = rest[:i], f
		}
	}
	return r, nil
}

// sessionOptions builds monitor options for the line.
func sessionOptions(config serial.Config, rtu bool, silence time.Duration, rules []monitor.Rule) []monitor.Option {
	return []monitor.Option{
		monitor.WithTiming(config.Timing(rtu)),
		monitor.WithSilence(silence),
		monitor.WithCapacity(viper.GetInt("monitor.history")),
		monitor.WithHighlights(rules...),
		monitor.WithLogger(slog.Default()),
	}
}
