package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/neurodesk/curly/pkg/curly"
	"github.com/neurodesk/curly/pkg/datafile"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const replPrompt = "curly> "

const replHelp = `Each line is rendered as a template against the loaded data.

  :data <file>      merge a data file into the data
  :set key=value    set one data value
  :key <expr>       print the tree of a rendering key
  :tree <source>    print the compiled nodes of a template
  :render <name>    render a template from the configured sources
  :tags             list tags and :: functions
  :quit             leave (Ctrl+D works too)
`

var replCmd = cobra.Command{
	Use:   "repl",
	Short: "Render templates interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		dataFiles, _ := cmd.Flags().GetStringArray("data")
		sets, _ := cmd.Flags().GetStringArray("set")
		data, err := env.loadData(dataFiles, sets)
		if err != nil {
			return err
		}
		s := &replSession{env: env, data: data, out: cmd.OutOrStdout()}
		return s.run()
	},
}

type replSession struct {
	env  *environment
	data curly.Value
	out  io.Writer
}

func (s *replSession) run() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(s.complete)

	history := historyFile()
	if f, err := os.Open(history); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(history); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(s.out, "Type :help for commands, :quit or Ctrl+D to leave")
	for {
		input, err := line.Prompt(replPrompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if s.handle(input) {
			return nil
		}
	}
}

// handle runs one input line and reports whether the session should end.
func (s *replSession) handle(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}
	if !strings.HasPrefix(trimmed, ":") {
		out, err := s.env.engine.RenderString("repl", input, s.data)
		s.print(out, err)
		return false
	}

	cmd, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprint(s.out, replHelp)
	case ":data":
		v, err := datafile.Load(arg)
		if err == nil {
			s.data, err = datafile.Merge(s.data, v)
		}
		s.print("", err)
	case ":set":
		key, val, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			s.print("", fmt.Errorf("want key=value"))
			break
		}
		v, err := datafile.SetPath(s.data, strings.TrimSpace(key), strings.TrimSpace(val))
		if err == nil {
			s.data = v
		}
		s.print("", err)
	case ":key":
		s.print("", printKey(s.out, arg, "any"))
	case ":tree":
		doc, err := s.env.engine.Compile("repl", arg)
		if err == nil {
			fmt.Fprint(s.out, curly.Pretty(doc))
		}
		s.print("", err)
	case ":render":
		out, err := s.env.cache.Render(s.data, s.env.chainFor([]string{arg}, false)...)
		s.print(out, err)
	case ":tags":
		reg := s.env.engine.Registry()
		fmt.Fprintf(s.out, "tags:      %s\nfunctions: %s\n",
			strings.Join(reg.Names(), " "), strings.Join(reg.FuncNames(), " "))
	default:
		s.print("", fmt.Errorf("unknown command %s, try :help", cmd))
	}
	return false
}

func (s *replSession) print(out string, err error) {
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	if out != "" {
		fmt.Fprint(s.out, out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Fprintln(s.out)
		}
	}
}

// complete offers tag names after {{# and function names after ::.
func (s *replSession) complete(line string) []string {
	reg := s.env.engine.Registry()
	var (
		prefix, word string
		names        []string
	)
	if i := strings.LastIndex(line, "{{#"); i >= 0 && !strings.Contains(line[i:], "}}") {
		prefix, word, names = line[:i+3], line[i+3:], reg.Names()
	} else if i := strings.LastIndex(line, "::"); i >= 0 {
		prefix, word, names = line[:i+2], line[i+2:], reg.FuncNames()
	} else {
		return nil
	}
	if strings.ContainsAny(word, " }") {
		return nil
	}
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, word) {
			out = append(out, prefix+n)
		}
	}
	return out
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "curly_history")
}
