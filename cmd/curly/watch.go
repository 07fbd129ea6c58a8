package main

import (
	"fmt"
	"os"
	"os/signal"
	"slices"

	"github.com/spf13/cobra"
)

var watchCmd = cobra.Command{
	Use:   "watch <template> [template ...]",
	Short: "Render a template and render it again whenever a template file changes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		if len(env.dirs) == 0 {
			return fmt.Errorf("watch needs at least one template directory")
		}

		dataFiles, _ := cmd.Flags().GetStringArray("data")
		sets, _ := cmd.Flags().GetStringArray("set")
		out, _ := cmd.Flags().GetString("out")
		noLayout, _ := cmd.Flags().GetBool("no-layout")

		data, err := env.loadData(dataFiles, sets)
		if err != nil {
			return err
		}
		chain := env.chainFor(args, noLayout)
		render := func() {
			if err := env.renderTo(cmd.OutOrStdout(), out, chain, data); err != nil {
				env.logger.Error("render failed", "error", err)
			}
		}
		render()

		env.cache.OnChange = func(name string) {
			if slices.Contains(chain, name) {
				render()
			}
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return env.cache.Watch(ctx, env.dirs...)
	},
}

func init() {
	watchCmd.Flags().StringP("out", "o", "", "Write the output to a file instead of stdout")
	watchCmd.Flags().Bool("no-layout", false, "Do not wrap the template in its configured layouts")
}
