// Command pegc compiles and runs grammars written in the pego text format.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/hucsmn/pego"
)

// config mirrors the optimizer/backend flags accepted both on the command
// line and in a --config toml file; flags take precedence when both are
// given.
type config struct {
	Backend string `toml:"backend"`
	Inline  bool   `toml:"inline"`
	Merge   bool   `toml:"merge"`
	Regex   bool   `toml:"regex"`
	Debug   bool   `toml:"debug"`
}

func defaultConfig() config {
	return config{Backend: "packrat", Inline: true, Merge: true, Regex: true}
}

var cfgFile string
var cfg = defaultConfig()

func loadConfigFile(cmd *cobra.Command) error {
	if cfgFile == "" {
		return nil
	}
	var fromFile config
	if _, err := toml.DecodeFile(cfgFile, &fromFile); err != nil {
		return fmt.Errorf("reading config %s: %w", cfgFile, err)
	}
	if !cmd.Flags().Changed("backend") && fromFile.Backend != "" {
		cfg.Backend = fromFile.Backend
	}
	if !cmd.Flags().Changed("inline") {
		cfg.Inline = fromFile.Inline
	}
	if !cmd.Flags().Changed("merge") {
		cfg.Merge = fromFile.Merge
	}
	if !cmd.Flags().Changed("regex") {
		cfg.Regex = fromFile.Regex
	}
	if !cmd.Flags().Changed("debug") {
		cfg.Debug = fromFile.Debug
	}
	return nil
}

func (c config) flags() pego.Flags {
	flags := pego.STRICT
	if c.Inline {
		flags |= pego.INLINE
	}
	if c.Merge {
		flags |= pego.MERGE
	}
	if c.Regex {
		flags |= pego.REGEX
	}
	if c.Debug {
		flags |= pego.DEBUG
	}
	return flags
}

func (c config) backend() (pego.Backend, error) {
	switch c.Backend {
	case "packrat", "":
		return pego.Packrat, nil
	case "machine":
		return pego.Machine, nil
	default:
		return 0, fmt.Errorf("unknown backend %q (want packrat or machine)", c.Backend)
	}
}

func compileFile(cmd *cobra.Command, path string) (*pego.Matcher, error) {
	if err := loadConfigFile(cmd); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	gr, err := pego.ParseGrammar(string(src))
	if err != nil {
		return nil, err
	}
	backend, err := cfg.backend()
	if err != nil {
		return nil, err
	}
	return pego.Compile(gr, backend, nil, cfg.flags())
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <grammar.peg> [input]",
		Short: "compile a grammar and match it against input",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			matcher, err := compileFile(cmd, args[0])
			if err != nil {
				return err
			}

			var input []byte
			if len(args) == 2 {
				input, err = os.ReadFile(args[1])
			} else {
				input, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			match, err := matcher.Match(string(input), 0, cfg.flags())
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				os.Exit(1)
			}

			start, end := match.Span()
			result := map[string]interface{}{
				"span":      [2]int{start, end},
				"groups":    match.Groups(),
				"groupdict": match.GroupDict(),
				"value":     match.Value(),
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <grammar.peg>",
		Short: "finalize and optimize a grammar without matching anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := compileFile(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pegc",
		Short: "pegc compiles and runs pego grammars",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "toml config file")
	root.PersistentFlags().StringVar(&cfg.Backend, "backend", cfg.Backend, "packrat or machine")
	root.PersistentFlags().BoolVar(&cfg.Inline, "inline", cfg.Inline, "enable the inline optimizer pass")
	root.PersistentFlags().BoolVar(&cfg.Merge, "merge", cfg.Merge, "enable the merge optimizer pass")
	root.PersistentFlags().BoolVar(&cfg.Regex, "regex", cfg.Regex, "enable the regex-lift optimizer pass")
	root.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable trace logging")
	root.AddCommand(newRunCmd(), newCheckCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
