/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allbin/go-serialscope/crc"
	"github.com/allbin/go-serialscope/internal/tui/styles"
	"github.com/allbin/go-serialscope/numeric"
)

// crcCmd represents the crc command
var crcCmd = &cobra.Command{
	Use:   "crc [data]",
	Short: "Compute CRC checksums",
	Long: `Compute the CRC of data given as an argument, read from --file or piped
on stdin.

Any algorithm from 'serialscope crc list' can be named with --algorithm,
ignoring case and punctuation, or 'all' computes every one of them. A
custom algorithm is given with --width and --poly plus the optional
--init, --refin, --refout and --xorout parameters.

Example usage:
  serialscope crc "01 03 00 00 00 01" --format hex
  serialscope crc 123456789 --algorithm crc-32
  serialscope crc --file firmware.bin --algorithm all
  serialscope crc "hello" --width 16 --poly 0x1021 --init 0xffff`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := crcInput(cmd, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		specs, err := crcSpecs(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(specs) == 1 {
			printChecksum(specs[0], data)
			return
		}

		rows := make([]map[string]any, 0, len(specs))
		for _, s := range specs {
			rows = append(rows, map[string]any{
				"name": s.Name,
				"crc":  s.Format(crc.MustNew(s).Checksum(data)),
			})
		}
		fmt.Printf("%d bytes\n", len(data))
		fmt.Println(renderTable([]column{
			{key: "name", title: "Algorithm", width: 20},
			{key: "crc", title: "CRC", width: 12},
		}, rows))
	},
}

// crcListCmd represents the crc list command
var crcListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the named CRC algorithms with their self-test results",
	Run: func(cmd *cobra.Command, args []string) {
		rows := make([]map[string]any, 0)
		failed := 0
		for _, s := range crc.Catalog() {
			got, ok := s.SelfTest()
			status := styles.GetStatusStyle(styles.StatusOK).Render("ok")
			if !ok {
				failed++
				status = styles.GetStatusStyle(styles.StatusFailed).Render("FAIL " + s.Format(got))
			}
			rows = append(rows, map[string]any{
				"name":   s.Name,
				"width":  strconv.Itoa(s.Width),
				"poly":   s.Format(s.Poly),
				"init":   s.Format(s.Init),
				"ref":    reflectLabel(s),
				"xorout": s.Format(s.XorOut),
				"check":  s.Format(s.Check),
				"test":   status,
			})
		}
		fmt.Println(renderTable([]column{
			{key: "name", title: "Algorithm", width: 20},
			{key: "width", title: "Width", width: 5},
			{key: "poly", title: "Poly", width: 12},
			{key: "init", title: "Init", width: 12},
			{key: "ref", title: "Ref", width: 7},
			{key: "xorout", title: "XorOut", width: 12},
			{key: "check", title: "Check", width: 12},
			{key: "test", title: "Self-test", width: 18},
		}, rows))
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(crcCmd)
	crcCmd.AddCommand(crcListCmd)

	crcCmd.Flags().StringP("algorithm", "a", "modbus", "Named algorithm, or 'all'")
	crcCmd.Flags().String("format", "text", "Input format: text, hex, decimal, octal, binary")
	crcCmd.Flags().String("file", "", "Read input from a file")
	crcCmd.Flags().Int("width", 0, "Custom algorithm width: 8, 16 or 32")
	crcCmd.Flags().String("poly", "", "Custom polynomial, normal form (e.g. 0x8005)")
	crcCmd.Flags().String("init", "0", "Custom initial register value")
	crcCmd.Flags().Bool("refin", false, "Custom: reflect input bytes")
	crcCmd.Flags().Bool("refout", false, "Custom: reflect the final register")
	crcCmd.Flags().String("xorout", "0", "Custom final XOR value")
}

func crcInput(cmd *cobra.Command, args []string) ([]byte, error) {
	formatName, _ := cmd.Flags().GetString("format")
	path, _ := cmd.Flags().GetString("file")

	switch {
	case path != "":
		return os.ReadFile(path)
	case len(args) == 1:
		format, err := numeric.ParseFormat(formatName)
		if err != nil {
			return nil, err
		}
		return numeric.ParseBytes(args[0], format)
	default:
		return io.ReadAll(os.Stdin)
	}
}

// crcSpecs resolves the algorithm flags. Custom parameters take
// precedence over --algorithm.
func crcSpecs(cmd *cobra.Command) ([]crc.Spec, error) {
	width, _ := cmd.Flags().GetInt("width")
	if width != 0 || cmd.Flags().Changed("poly") {
		return customSpec(cmd, width)
	}

	name, _ := cmd.Flags().GetString("algorithm")
	if strings.EqualFold(name, "all") {
		return crc.Catalog(), nil
	}
	spec, ok := crc.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (see 'serialscope crc list')", crc.ErrUnknownAlgorithm, name)
	}
	return []crc.Spec{spec}, nil
}

func customSpec(cmd *cobra.Command, width int) ([]crc.Spec, error) {
	var params [3]uint64
	for i, name := range []string{"poly", "init", "xorout"} {
		v, _ := cmd.Flags().GetString(name)
		n, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		params[i] = n
	}
	refIn, _ := cmd.Flags().GetBool("refin")
	refOut, _ := cmd.Flags().GetBool("refout")

	spec, err := crc.Custom(width, params[0], params[1], refIn, refOut, params[2])
	if err != nil {
		return nil, err
	}
	return []crc.Spec{spec}, nil
}

func printChecksum(s crc.Spec, data []byte) {
	sum := crc.MustNew(s).Checksum(data)
	fmt.Printf("%s: %s\n", s.Name, s.Format(sum))
	fmt.Printf("  decimal:  %d\n", sum)
	if s.Width > 8 {
		trailer := make([]byte, s.Width/8)
		for i := range trailer {
			if s.RefOut {
				trailer[i] = byte(sum >> (8 * i))
			} else {
				trailer[len(trailer)-1-i] = byte(sum >> (8 * i))
			}
		}
		fmt.Printf("  trailer:  %s\n", numeric.FormatBytes(trailer, numeric.FormatHex))
	}
	if s.Name == "custom" {
		fmt.Printf("  params:   %s\n", s)
	}
}

func reflectLabel(s crc.Spec) string {
	switch {
	case s.RefIn && s.RefOut:
		return "in/out"
	case s.RefIn:
		return "in"
	case s.RefOut:
		return "out"
	default:
		return "-"
	}
}
