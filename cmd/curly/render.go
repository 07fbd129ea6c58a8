package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/neurodesk/curly/pkg/curly"
	"github.com/spf13/cobra"
)

var renderCmd = cobra.Command{
	Use:   "render <template> [template ...]",
	Short: "Render a template inside its configured layouts",
	Long: `Render a template inside its configured layouts.

With several templates the first one is rendered and each following one fills
the {{#body}} tag of the one before it; configured layouts are not applied.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		dataFiles, _ := cmd.Flags().GetStringArray("data")
		sets, _ := cmd.Flags().GetStringArray("set")
		out, _ := cmd.Flags().GetString("out")
		noLayout, _ := cmd.Flags().GetBool("no-layout")

		data, err := env.loadData(dataFiles, sets)
		if err != nil {
			return err
		}
		return env.renderTo(cmd.OutOrStdout(), out, env.chainFor(args, noLayout), data)
	},
}

// renderTo renders a layout chain and writes it to out, or to w when out is
// empty. Files are replaced atomically.
func (e *environment) renderTo(w io.Writer, out string, chain []string, data curly.Value) error {
	text, err := e.cache.Render(data, chain...)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", strings.Join(chain, " > "), err)
	}
	if out == "" {
		_, err := io.WriteString(w, text)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(out, strings.NewReader(text)); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	e.logger.Info("rendered", "templates", chain, "out", out, "bytes", len(text))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{&renderCmd, &watchCmd, &replCmd} {
		c.Flags().StringArray("data", []string{}, "Data file (.json, .yaml, .yml, .star); repeat to merge several")
		c.Flags().StringArray("set", []string{}, "Set a data value as key=value, dotted keys allowed")
	}
	renderCmd.Flags().StringP("out", "o", "", "Write the output to a file instead of stdout")
	renderCmd.Flags().Bool("no-layout", false, "Do not wrap the template in its configured layouts")
}
