/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	serial "github.com/allbin/go-serialscope"
	"github.com/allbin/go-serialscope/internal/tui/components"
	"github.com/allbin/go-serialscope/internal/tui/keys"
	"github.com/allbin/go-serialscope/internal/tui/models"
	"github.com/allbin/go-serialscope/monitor"
)

var listenFlags displayFlags

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <port>",
	Short: "Monitor a serial line with real-time frame display",
	Long: `Monitor a serial line in a terminal user interface.

Incoming bytes are cut into frames on line silence and shown as they
arrive. Features include:
- Hex, decimal, octal, binary and ASCII views, toggled live
- Highlight rules that color matching byte sequences
- Modbus RTU decoding with CRC checks (--modbus)
- Visual mode (v) to select a frame and inspect it in every view
- Capture export (e) to a YAML file

Example usage:
  serialscope listen /dev/ttyUSB0
  serialscope listen /dev/ttyUSB0 --baud 9600 --parity even --modbus
  serialscope listen /dev/ttyUSB0 --highlight ack=06:hex --view hex,decimal`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runListenTUI(args[0], listenFlags); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
	addDisplayFlags(listenCmd, &listenFlags)
}

// listenModel represents the Bubble Tea model for the listen command
type listenModel struct {
	*models.SerialModel
	view *frameView
	keys keys.TerminalKeys
}

// newMonitorSession builds the session and display shared by listen and
// connect.
func newMonitorSession(title, portPath string, flags displayFlags) (*models.SerialModel, *frameView, []serial.Option, error) {
	config, opts, err := portConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	rules, err := highlightRules(flags.highlights)
	if err != nil {
		return nil, nil, nil, err
	}
	session, err := monitor.NewSession(sessionOptions(config, flags.modbus, flags.silence, rules)...)
	if err != nil {
		return nil, nil, nil, err
	}

	info := components.ConnectionInfo{Config: config, Silence: session.Silence()}
	view, err := newFrameView(title, portPath, flags, info, viper.GetInt("monitor.history"))
	if err != nil {
		return nil, nil, nil, err
	}
	return models.NewSerialModel(portPath, session), view, opts, nil
}

func runListenTUI(portPath string, flags displayFlags) error {
	sm, view, opts, err := newMonitorSession("Serial Listen", portPath, flags)
	if err != nil {
		return err
	}

	m := listenModel{
		SerialModel: sm,
		view:        view,
		keys:        keys.NewTerminalKeys(),
	}

	// Start the TUI with alt screen and input handling
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	go m.Connect(p.Send, opts...)

	_, err = p.Run()

	// Ensure cleanup
	m.Cleanup()
	return err
}

func (m *listenModel) Init() tea.Cmd {
	return nil
}

func (m *listenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.view.handleStatus(m.SerialModel, msg) {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Status bar is single line
		statusBarHeight := 1
		m.view.setSize(msg.Width, msg.Height-statusBarHeight-1)
		m.SetReady(true)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.Cleanup()
			return m, tea.Quit
		}
		m.view.handleKey(m.SerialModel, m.keys, msg)
		return m, nil
	}

	// Update terminal viewport for resize and mouse messages
	_, cmd := m.view.terminal.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *listenModel) View() string {
	return m.view.layout(m.SerialModel, m.keys, m.GetInputMode().String(), "")
}
