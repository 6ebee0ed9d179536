/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/allbin/go-serialscope/internal/tui/components"
	"github.com/allbin/go-serialscope/monitor"
)

var replayFlags displayFlags

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <capture-file>",
	Short: "Print the frames of an exported capture",
	Long: `Print the frames of a capture written by 'capture' or exported from the
interactive views, in the same display formats as listen.

Highlight rules are applied again, so a capture can be searched with rules
that did not exist when it was recorded.

Example usage:
  serialscope replay capture.yaml
  serialscope replay capture.yaml --modbus --view hex
  serialscope replay capture.yaml --highlight err=ERR`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runReplay(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	addDisplayFlags(replayCmd, &replayFlags)
}

func runReplay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	c, err := monitor.ReadCapture(f)
	if err != nil {
		return err
	}

	rules, err := highlightRules(replayFlags.highlights)
	if err != nil {
		return err
	}
	hl, err := monitor.NewHighlighter(rules...)
	if err != nil {
		return err
	}
	views, err := replayFlags.formats()
	if err != nil {
		return err
	}
	formatter := components.NewDataFormatter(views...)
	formatter.SetModbus(replayFlags.modbus)
	if replayFlags.noTimestamps {
		formatter.ToggleTimestamps()
	}

	fmt.Printf("%s  %s  gap %s  exported %s\n", c.Port, c.Line, c.Silence, c.Exported.Format(time.RFC3339))
	matched := 0
	for _, cf := range c.Frames {
		r, err := cf.Record()
		if err != nil {
			return err
		}
		r.Matches = hl.Match(r.Frame.Bytes())
		if len(r.Matches) > 0 {
			matched++
		}
		fmt.Println(formatter.FormatRecord(r))
	}
	fmt.Printf("%d frames (RX %d, TX %d), %d with highlights\n",
		len(c.Frames), c.Stats.RXFrames, c.Stats.TXFrames, matched)
	return nil
}
