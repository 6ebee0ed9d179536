/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/allbin/go-serialscope/numeric"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump [file]",
	Short: "Hex or binary dump of a file",
	Long: `Print a file, or stdin, as a hex dump with offsets and an ASCII column,
or as a binary dump with --binary.

With --search the offsets of every occurrence of a pattern are listed.
A pattern starting with 0x is hex bytes, anything else is text matched
case-insensitively unless --case-sensitive is given.

Example usage:
  serialscope dump data.log
  serialscope dump data.log --binary --offset 16 --length 32
  serialscope dump capture.bin --search 0x010300`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDump(cmd, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().Bool("binary", false, "Binary dump instead of hex")
	dumpCmd.Flags().String("search", "", "List offsets of a pattern (0x-prefixed hex or text)")
	dumpCmd.Flags().Bool("case-sensitive", false, "Match text patterns exactly")
	dumpCmd.Flags().Int("offset", 0, "Start at this byte offset")
	dumpCmd.Flags().Int("length", 0, "Dump at most this many bytes")
}

func runDump(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return err
	}

	offset, _ := cmd.Flags().GetInt("offset")
	length, _ := cmd.Flags().GetInt("length")
	if offset < 0 || offset > len(data) {
		return fmt.Errorf("offset %d outside %d bytes", offset, len(data))
	}
	data = data[offset:]
	if length > 0 && length < len(data) {
		data = data[:length]
	}

	if query, _ := cmd.Flags().GetString("search"); query != "" {
		caseSensitive, _ := cmd.Flags().GetBool("case-sensitive")
		return printSearch(data, offset, query, caseSensitive)
	}

	binary, _ := cmd.Flags().GetBool("binary")
	var out string
	if binary {
		out = numeric.BinaryDump(data)
	} else {
		out = numeric.HexDump(data)
	}
	if offset == 0 {
		fmt.Print(out)
		return nil
	}
	// Dumps count from the slice start; shift rows to file offsets
	perLine := numeric.HexBytesPerLine
	if binary {
		perLine = numeric.BinaryBytesPerLine
	}
	for _, line := range numeric.Lines(data, perLine) {
		row := numeric.FormatBytes(line.Bytes, numeric.FormatHex)
		if binary {
			fmt.Printf("%08X  %s\n", offset+line.Offset, numeric.FormatBytes(line.Bytes, numeric.FormatBinary))
			continue
		}
		fmt.Printf("%08X  %-*s  %s\n", offset+line.Offset, numeric.HexBytesPerLine*3-1, row,
			numeric.FormatBytes(line.Bytes, numeric.FormatASCII))
	}
	return nil
}

func printSearch(data []byte, base int, query string, caseSensitive bool) error {
	pattern, err := numeric.ParsePattern(query)
	if err != nil {
		return err
	}
	offsets := numeric.Index(data, pattern, caseSensitive)
	if len(offsets) == 0 {
		fmt.Printf("No match for %s\n", numeric.FormatBytes(pattern, numeric.FormatHex))
		return nil
	}
	fmt.Printf("%d match(es) for %s\n", len(offsets), numeric.FormatBytes(pattern, numeric.FormatHex))
	for _, off := range offsets {
		end := min(off+len(pattern)+8, len(data))
		fmt.Printf("%08X  %s\n", base+off, numeric.FormatBytes(data[off:end], numeric.FormatHex))
	}
	return nil
}
