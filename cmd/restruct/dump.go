package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"restruct/internal/driver"
	"restruct/internal/ir"
)

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Print or convert an IR document",
	Long: `Dump decodes an IR document and prints its blocks and values as text.
With --to json or --to msgpack it re-encodes the document instead, which
converts between the two encodings.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringSlice("func", nil, "dump only the named functions (repeatable)")
	dumpCmd.Flags().String("to", "text", "output format (text|json|msgpack)")
	dumpCmd.Flags().StringP("output", "o", "", "write to a file instead of stdout")
}

func runDump(cmd *cobra.Command, args []string) error {
	funcs, err := cmd.Flags().GetStringSlice("func")
	if err != nil {
		return fmt.Errorf("failed to get func flag: %w", err)
	}
	to, err := cmd.Flags().GetString("to")
	if err != nil {
		return fmt.Errorf("failed to get to flag: %w", err)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	to = strings.ToLower(strings.TrimSpace(to))
	switch to {
	case "text", "json", "msgpack":
	default:
		return fmt.Errorf("unsupported format %q (must be text, json or msgpack)", to)
	}

	m, err := ir.DecodeFile(args[0])
	if err != nil {
		return err
	}
	if len(funcs) > 0 {
		if _, err := driver.FuncNames(m, funcs); err != nil {
			return err
		}
		m = subsetModule(m, funcs)
	}

	if output == "" {
		return writeDump(cmd.OutOrStdout(), m, to)
	}
	return writeDumpFile(output, m, to)
}

// subsetModule keeps the named functions in module order.
func subsetModule(m *ir.Module, names []string) *ir.Module {
	keep := make(map[string]struct{}, len(names))
	for _, name := range names {
		keep[name] = struct{}{}
	}
	out := *m
	out.Funcs = nil
	for _, f := range m.Funcs {
		if _, ok := keep[f.Name]; ok {
			out.Funcs = append(out.Funcs, f)
		}
	}
	return &out
}

func writeDump(w io.Writer, m *ir.Module, to string) error {
	switch to {
	case "json":
		return ir.Encode(w, m, ir.EncodingJSON)
	case "msgpack":
		return ir.Encode(w, m, ir.EncodingMsgpack)
	default:
		return ir.DumpModule(w, m)
	}
}

// writeDumpFile writes through a temp file in the target directory and
// renames it into place.
func writeDumpFile(path string, m *ir.Module, to string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := writeDump(bw, m, to); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	renamed = true
	return nil
}
