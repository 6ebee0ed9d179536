/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allbin/go-serialscope/internal/tui/styles"
	"github.com/allbin/go-serialscope/numeric"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Show bytes as every integer and float type",
	Long: `Decode a byte sequence as every integer width in both signednesses and
as float32 and float64, in the chosen byte order. Types needing more bytes
than given are marked as such.

With --as the input is a number instead: it is parsed in --base into that
type, and its encoding is shown before the table. With --to the bytes are
converted to another type keeping their value, failing if the value does
not fit exactly.

Example usage:
  serialscope convert "41 20 00 00"
  serialscope convert "00 0A" --endian little
  serialscope convert -- -2 --as int16
  serialscope convert 0xBEEF --as uint16 --base 16 --to int32
  serialscope convert "01 02" --to uint32 --pad`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConvert(cmd, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("format", "hex", "Byte input format: hex, decimal, octal, binary, text")
	convertCmd.Flags().StringP("endian", "e", "big", "Byte order: big, little")
	convertCmd.Flags().String("as", "", "Parse input as a number of this type (e.g. int16, uint32, float32)")
	convertCmd.Flags().Int("base", 10, "Number base for --as: 2, 8, 10, 16")
	convertCmd.Flags().String("to", "", "Convert the value to this type")
	convertCmd.Flags().Bool("pad", false, "Zero extend short input to the --as or --to type")
}

func runConvert(cmd *cobra.Command, input string) error {
	endian, _ := cmd.Flags().GetString("endian")
	order, err := parseByteOrder(endian)
	if err != nil {
		return err
	}

	asName, _ := cmd.Flags().GetString("as")
	toName, _ := cmd.Flags().GetString("to")
	pad, _ := cmd.Flags().GetBool("pad")

	var data []byte
	var from numeric.View
	if asName != "" {
		base, _ := cmd.Flags().GetInt("base")
		from, err = parseView(asName, order)
		if err != nil {
			return err
		}
		val, err := numeric.Parse(input, numeric.Base(base), from)
		if err != nil {
			return err
		}
		data = numeric.Encode(val)
		fmt.Printf("%s %s = %s\n\n", from, val, numeric.FormatBytes(data, numeric.FormatHex))
	} else {
		formatName, _ := cmd.Flags().GetString("format")
		format, err := numeric.ParseFormat(formatName)
		if err != nil {
			return err
		}
		if data, err = numeric.ParseBytes(input, format); err != nil {
			return err
		}
	}

	if toName != "" {
		to, err := parseView(toName, order)
		if err != nil {
			return err
		}
		if asName == "" {
			from = numeric.Uint(len(data)*8, order)
			if pad || from.Validate() != nil {
				from = to
				data = numeric.Pad(data, to)
			}
		}
		out, err := numeric.Reinterpret(data, from, to)
		if err != nil {
			return err
		}
		val, _ := numeric.Decode(out, to)
		fmt.Printf("%s %s = %s\n\n", to, val, numeric.FormatBytes(out, numeric.FormatHex))
		data = out
	} else if pad && asName == "" {
		data = numeric.Pad(data, numeric.Uint(64, order))
	}

	fmt.Printf("%d bytes: %s\n", len(data), numeric.FormatBytes(data, numeric.FormatHex))
	fmt.Println(renderTable(readingColumns, readingRows(numeric.DecodeAll(data, order))))
	return nil
}

var readingColumns = []column{
	{key: "view", title: "Type", width: 14},
	{key: "dec", title: "Decimal", width: 24},
	{key: "hex", title: "Hex", width: 20},
	{key: "class", title: "Class", width: 10},
}

func readingRows(readings []numeric.Reading) []map[string]any {
	rows := make([]map[string]any, 0, len(readings))
	for _, r := range readings {
		row := map[string]any{"view": r.View.String()}
		switch {
		case errors.Is(r.Err, numeric.ErrInsufficientBytes):
			row["dec"] = styles.GetStatusStyle(styles.StatusFailed).Render("insufficient bytes")
			row["hex"], row["class"] = "", ""
		case r.Err != nil:
			row["dec"] = r.Err.Error()
			row["hex"], row["class"] = "", ""
		default:
			row["dec"] = r.Value.String()
			row["hex"] = r.Value.Format(numeric.Base16)
			row["class"] = r.Value.Class().String()
		}
		rows = append(rows, row)
	}
	return rows
}

func parseByteOrder(s string) (numeric.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "big", "be", "msb":
		return numeric.BigEndian, nil
	case "little", "le", "lsb":
		return numeric.LittleEndian, nil
	}
	return 0, fmt.Errorf("%w: byte order %q, want big or little", numeric.ErrInvalidInput, s)
}

// parseView reads type names like int16, u32 or float64.
func parseView(s string, order numeric.ByteOrder) (numeric.View, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	digits := strings.TrimLeft(name, "abcdefghijklmnopqrstuvwxyz")
	kind := strings.TrimSuffix(name, digits)
	width, err := strconv.Atoi(digits)
	if err != nil {
		return numeric.View{}, fmt.Errorf("%w: type %q", numeric.ErrInvalidInput, s)
	}

	var v numeric.View
	switch kind {
	case "int", "i", "s", "sint":
		v = numeric.Int(width, order)
	case "uint", "u":
		v = numeric.Uint(width, order)
	case "float", "f":
		v = numeric.FloatView(width, order)
	default:
		return numeric.View{}, fmt.Errorf("%w: type %q", numeric.ErrInvalidInput, s)
	}
	if err := v.Validate(); err != nil {
		return numeric.View{}, err
	}
	return v, nil
}
