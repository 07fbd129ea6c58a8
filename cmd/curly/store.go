package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/neurodesk/curly/pkg/source"
	"github.com/spf13/cobra"
)

var storeCmd = cobra.Command{
	Use:   "store",
	Short: "Manage templates kept in the configured SQL store",
}

var storePutCmd = cobra.Command{
	Use:   "put <name> <file>",
	Short: "Store a template file under a name",
	Args:  cobra.ExactArgs(2),
	RunE: withStore(func(ctx context.Context, w io.Writer, env *environment, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		if err := env.store.Put(ctx, args[0], string(data), time.Now()); err != nil {
			return err
		}
		fmt.Fprintf(w, "stored %s\n", args[0])
		return nil
	}),
}

var storeImportCmd = cobra.Command{
	Use:   "import <dir>",
	Short: "Store every template found in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, w io.Writer, env *environment, args []string) error {
		n, err := importDir(ctx, env.store, source.NewDirProvider(args[0], env.cfg.Extension))
		fmt.Fprintf(w, "imported %d templates\n", n)
		return err
	}),
}

var storeListCmd = cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	Args:  cobra.NoArgs,
	RunE: withStore(func(ctx context.Context, w io.Writer, env *environment, args []string) error {
		names, err := env.store.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			mod, err := env.store.ModTime(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\n", name, mod.Format(time.RFC3339))
		}
		return nil
	}),
}

var storeRmCmd = cobra.Command{
	Use:   "rm <name> [name ...]",
	Short: "Delete stored templates",
	Args:  cobra.MinimumNArgs(1),
	RunE: withStore(func(ctx context.Context, w io.Writer, env *environment, args []string) error {
		for _, name := range args {
			if err := env.store.Delete(ctx, name); err != nil {
				return err
			}
		}
		return nil
	}),
}

type storeFunc func(ctx context.Context, w io.Writer, env *environment, args []string) error

func withStore(fn storeFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		if env.store == nil {
			return fmt.Errorf("no store configured in %s", rootConfig)
		}
		return fn(cmd.Context(), cmd.OutOrStdout(), env, args)
	}
}

// importDir copies the templates of p into the store, keeping their
// modification times.
func importDir(ctx context.Context, store *source.SQLStore, p source.Provider) (int, error) {
	names, err := p.List()
	if err != nil {
		return 0, err
	}
	for i, name := range names {
		src, mod, err := p.Source(name)
		if err != nil {
			return i, err
		}
		if err := store.Put(ctx, name, src, mod); err != nil {
			return i, err
		}
	}
	return len(names), nil
}

func init() {
	storeCmd.AddCommand(&storePutCmd)
	storeCmd.AddCommand(&storeImportCmd)
	storeCmd.AddCommand(&storeListCmd)
	storeCmd.AddCommand(&storeRmCmd)
}
