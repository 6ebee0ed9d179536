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

	serial "github.com/allbin/go-serialscope"
	"github.com/allbin/go-serialscope/internal/tui/components"
	"github.com/allbin/go-serialscope/internal/tui/keys"
	"github.com/allbin/go-serialscope/internal/tui/models"
	"github.com/allbin/go-serialscope/numeric"
)

var (
	connectFlags      displayFlags
	connectSendFormat string
	connectLineEnding string
	connectSyncWrites bool
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect <port>",
	Short: "Connect to a serial port with bidirectional communication",
	Long: `Connect to a serial port with an interactive terminal.

Everything listen does, plus an input line for sending. Press 'i' to type,
Tab to cycle the send format (text, hex, decimal, binary) and Enter to
send. Sent data is shown as TX frames next to the received RX frames.
Up and down recall earlier entries.

Example usage:
  serialscope connect /dev/ttyUSB0
  serialscope connect /dev/ttyUSB0 --baud 9600 --line-ending crlf
  serialscope connect /dev/ttyUSB0 --modbus --send-format hex`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConnectTUI(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
	addDisplayFlags(connectCmd, &connectFlags)

	connectCmd.Flags().StringVar(&connectSendFormat, "send-format", "text", "Initial send format: text, hex, decimal, binary")
	connectCmd.Flags().StringVar(&connectLineEnding, "line-ending", "lf", "Line ending appended to text: none, cr, lf, crlf")
	connectCmd.Flags().BoolVar(&connectSyncWrites, "sync-writes", false, "Enable synchronous writes (O_SYNC) for guaranteed transmission")
}

// sendResultMsg reports the outcome of a write started from the input.
type sendResultMsg struct {
	input string
	err   error
}

// connectModel represents the Bubble Tea model for the connect command
type connectModel struct {
	*models.SerialModel
	view  *frameView
	input *components.Input
	keys  keys.ConnectKeys
}

func runConnectTUI(portPath string) error {
	format, err := numeric.ParseFormat(connectSendFormat)
	if err != nil {
		return err
	}
	ending, err := numeric.ParseLineEnding(connectLineEnding)
	if err != nil {
		return err
	}

	sm, view, opts, err := newMonitorSession("Serial Connect", portPath, connectFlags)
	if err != nil {
		return err
	}
	if connectSyncWrites {
		opts = append(opts, serial.WithSyncWrite())
	}

	m := connectModel{
		SerialModel: sm,
		view:        view,
		input:       components.NewInput(format, ending),
		keys:        keys.NewConnectKeys(),
	}
	m.input.Blur()

	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	go m.Connect(p.Send, opts...)

	_, err = p.Run()

	m.Cleanup()
	return err
}

func (m *connectModel) Init() tea.Cmd {
	return nil
}

// send parses the input and writes it in the background.
func (m *connectModel) send() tea.Cmd {
	value := m.input.Value()
	if value == "" {
		return nil
	}
	data, err := m.input.Bytes()
	if err != nil {
		m.view.notice(fmt.Sprintf("Invalid %s input: %v", m.input.ModeLabel(), err), true)
		return nil
	}
	m.input.AddToHistory(value)
	m.input.SetValue("")

	return func() tea.Msg {
		return sendResultMsg{input: value, err: m.Send(data)}
	}
}

func (m *connectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.view.handleStatus(m.SerialModel, msg) {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Input area height (includes border) and single line status bar
		inputHeight := 3
		statusBarHeight := 1
		m.view.setSize(msg.Width, msg.Height-inputHeight-statusBarHeight-1)
		m.input.SetWidth(msg.Width)
		m.SetReady(true)

	case sendResultMsg:
		if msg.err != nil {
			m.view.notice(fmt.Sprintf("Send %q failed: %v", msg.input, msg.err), true)
		}
		return m, nil

	case tea.KeyMsg:
		if m.IsInInsertMode() {
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
				return m, nil
			case key.Matches(msg, m.keys.Send):
				return m, m.send()
			case key.Matches(msg, m.keys.HistoryPrev):
				m.input.NavigateHistoryUp()
				return m, nil
			case key.Matches(msg, m.keys.HistoryNext):
				m.input.NavigateHistoryDown()
				return m, nil
			case key.Matches(msg, m.keys.CycleSendFormat):
				m.input.ToggleSendingMode()
				return m, nil
			case key.Matches(msg, m.keys.CycleLineEnding):
				m.input.CycleLineEnding()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cleanup()
			return m, tea.Quit
		case key.Matches(msg, m.keys.InsertMode) && !m.IsInVisualMode():
			m.SetInputMode(models.InputModeInsert)
			m.input.Focus()
			return m, nil
		case key.Matches(msg, m.keys.CycleSendFormat):
			m.input.ToggleSendingMode()
			return m, nil
		case key.Matches(msg, m.keys.CycleLineEnding):
			m.input.CycleLineEnding()
			return m, nil
		}
		m.view.handleKey(m.SerialModel, m.keys.TerminalKeys, msg)
		return m, nil
	}

	_, cmd := m.view.terminal.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *connectModel) View() string {
	input := m.input.ViewWithMode(m.IsInInsertMode())
	return m.view.layout(m.SerialModel, m.keys, m.GetInputMode().String(), m.input.ModeLabel(), input)
}
