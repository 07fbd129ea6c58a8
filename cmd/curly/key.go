package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/neurodesk/curly/pkg/curly"
	"github.com/spf13/cobra"
)

var keyTypes = map[string]curly.KeyType{
	"any":        curly.Any,
	"bool":       curly.Bool,
	"string":     curly.String,
	"numeric":    curly.Numeric,
	"collection": curly.Collection,
}

var keyCmd = cobra.Command{
	Use:   "key <expression>",
	Short: "Parse a rendering key and print its tree",
	Long: `Parse a rendering key and print its tree.

With --data or --set the key is also evaluated and its value printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		dataFiles, _ := cmd.Flags().GetStringArray("data")
		sets, _ := cmd.Flags().GetStringArray("set")
		expr := strings.Join(args, " ")

		if len(dataFiles) == 0 && len(sets) == 0 {
			return printKey(cmd.OutOrStdout(), expr, typ)
		}
		env, err := newEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		data, err := env.loadData(dataFiles, sets)
		if err != nil {
			return err
		}
		if err := printKey(cmd.OutOrStdout(), expr, typ); err != nil {
			return err
		}
		return env.evalKey(cmd.OutOrStdout(), expr, data)
	},
}

func printKey(w io.Writer, expr, typ string) error {
	kt, ok := keyTypes[strings.ToLower(typ)]
	if !ok {
		return fmt.Errorf("unknown key type %q", typ)
	}
	k, err := curly.ParseKey(expr, kt)
	if err != nil {
		return err
	}
	fmt.Fprint(w, curly.PrettyKey(k))
	return nil
}

// evalKey prints the unescaped value of expr, using a throwaway template so
// custom functions and variables behave as they do in a render.
func (e *environment) evalKey(w io.Writer, expr string, data curly.Value) error {
	out, err := e.engine.RenderString("key", "{{{"+expr+"}}}", data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "= %s\n", out)
	return nil
}

func init() {
	keyCmd.Flags().StringP("type", "t", "any", "Expected type: any, bool, string, numeric or collection")
	keyCmd.Flags().StringArray("data", []string{}, "Data file to evaluate the key against")
	keyCmd.Flags().StringArray("set", []string{}, "Set a data value as key=value")
}
