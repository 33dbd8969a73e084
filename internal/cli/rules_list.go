package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"pkgmedic/internal/flags"
	"pkgmedic/internal/rules"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var rulesListQuiet bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List and describe constraint rules",
	Long: `Inspect pkgmedic rules.

This command group helps you discover which rules exist, what each rule checks
and which options it accepts. Rules are evaluated by "pkgmedic check" (see
"pkgmedic check --help"); options are set in .pkgmedic.yaml or with --set.

Examples:
  # List all available rules
  pkgmedic rules list

  # Show the options of one rule
  pkgmedic rules show dependency-ranges
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long: `List all rules registered in this build, sorted by rule ID.

Examples:
  pkgmedic rules list
  pkgmedic rules list -q

Output:
  One rule per line: the rule ID followed by its title. With -q, only IDs
  are printed, ready for --rules.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if rulesListQuiet {
			for _, r := range rules.List() {
				fmt.Fprintln(out, r.ID())
			}
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, r := range rules.List() {
			fmt.Fprintf(tw, "%s\t%s\n", r.ID(), r.Title())
		}
		return tw.Flush()
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show [rule-id]",
	Short: "Show details of a specific rule",
	Long: `Show details of a specific rule by its ID, including its options and how to
set them.

Every rule accepts allow.workspaces and allow.patterns to discard effects on
specific workspaces.

Examples:
  pkgmedic rules show required-fields
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rList, err := rules.Resolve(args[0])
		if err != nil {
			return err
		}
		if len(rList) == 0 {
			return fmt.Errorf("rule not found: %s", args[0])
		}
		return printRule(cmd.OutOrStdout(), rList[0])
	},
}

func printRule(w io.Writer, r rules.Rule) error {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RULE: %s\n", r.ID())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, r.Title())
	fmt.Fprintln(w, r.Description())

	cr, ok := r.(rules.ConfigurableRule)
	if !ok || len(cr.Options()) == 0 {
		fmt.Fprintln(w)
		return nil
	}

	opts := cr.Options()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	for _, opt := range opts {
		def := opt.Default
		if def == "" {
			def = "\"\""
		}
		fmt.Fprintf(w, "  %s\n", opt.Name)
		fmt.Fprintf(w, "    Description: %s\n", opt.Description)
		fmt.Fprintf(w, "    Default:     %s\n", def)
	}

	snippet, err := configSnippet(r.ID(), opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration (.pkgmedic.yaml):")
	for _, line := range strings.Split(strings.TrimRight(snippet, "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Command line:")
	fmt.Fprintf(w, "  pkgmedic check --%s %s --%s '%s.%s=...'\n", flags.FlagRules, r.ID(), flags.FlagSet, r.ID(), opts[len(opts)-1].Name)
	fmt.Fprintln(w)
	return nil
}

// configSnippet renders the rule's options, at their defaults, as the
// options block of a configuration file.
func configSnippet(ruleID string, opts []rules.Option) (string, error) {
	values := make(map[string]string, len(opts))
	for _, opt := range opts {
		values[opt.Name] = opt.Default
	}
	doc := map[string]map[string]map[string]string{
		"options": {ruleID: values},
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("rendering options of %s: %w", ruleID, err)
	}
	return string(raw), nil
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().BoolVarP(&rulesListQuiet, flags.FlagQuiet, "q", false, "Only print rule IDs")
	rulesCmd.AddCommand(rulesShowCmd)
}
