package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/neurodesk/curly/pkg/curly"
	"github.com/neurodesk/curly/pkg/source"
	"github.com/spf13/cobra"
)

var checkCmd = cobra.Command{
	Use:   "check [template ...]",
	Short: "Compile templates and report errors",
	Long:  "Compile the named templates, or every template the configured sources list.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		tree, _ := cmd.Flags().GetBool("tree")
		return env.check(cmd.OutOrStdout(), args, tree)
	},
}

func (e *environment) check(w io.Writer, names []string, tree bool) error {
	all, err := e.provider.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = all
	}

	failed := 0
	for _, name := range names {
		doc, err := e.cache.Get(name)
		if err != nil {
			failed++
			if source.IsNotFound(err) {
				if s := closest(name, all); s != "" {
					err = fmt.Errorf("%w (did you mean %q?)", err, s)
				}
			}
			fmt.Fprintf(w, "FAIL %s: %v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "ok   %s %x\n", name, doc.Fingerprint[:6])
		if tree {
			fmt.Fprint(w, curly.Pretty(doc))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed", failed, len(names))
	}
	return nil
}

// closest returns the known name nearest to name, or "" when none is close.
func closest(name string, names []string) string {
	ranks := fuzzy.RankFindNormalizedFold(name, names)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

func init() {
	checkCmd.Flags().Bool("tree", false, "Print the compiled node tree of each template")
}
