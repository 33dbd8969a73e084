package cli

import (
	"context"
	"fmt"
	"io"

	"pkgmedic/internal/flags"
	"pkgmedic/internal/workspace"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var workspacesQuiet bool

var workspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "Print the workspaces and dependencies of a project",
	Long: `Load the project snapshot the way "pkgmedic check" does and print it.

Workspaces are listed root first, then by path. Each dependency shows its
declared range, the manifest section it comes from and, for local projects,
the version installed under node_modules when one is found.

Examples:
  pkgmedic workspaces
  pkgmedic workspaces --cwd ./monorepo -q
  pkgmedic workspaces --github acme/monorepo@main
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Runtime.Timeout)
		defer cancel()

		loader, err := buildLoader(ctx, cfg, logger)
		if err != nil {
			return err
		}
		p, err := loader.Load(ctx)
		if err != nil {
			return fmt.Errorf("loading project: %w", err)
		}
		if workspacesQuiet {
			for _, ws := range p.Workspaces(workspace.WorkspaceFilter{}) {
				fmt.Fprintln(cmd.OutOrStdout(), ws.Cwd)
			}
			return nil
		}
		printProject(cmd.OutOrStdout(), p)
		return nil
	},
}

func printProject(w io.Writer, p *workspace.Project) {
	bold := color.New(color.Bold)
	fmt.Fprintf(w, "Project: %s", p.Root)
	if p.ReadOnly {
		fmt.Fprint(w, " (read-only)")
	}
	fmt.Fprintf(w, "\n%d workspace(s)\n", p.Len())

	for _, ws := range p.Workspaces(workspace.WorkspaceFilter{}) {
		fmt.Fprintln(w)
		bold.Fprintf(w, "%s\n", ws.Label())
		fmt.Fprintf(w, "  manifest: %s\n", ws.ManifestPath)
		if len(ws.Dependencies) == 0 {
			fmt.Fprintln(w, "  no dependencies")
			continue
		}
		for _, d := range ws.Dependencies {
			fmt.Fprintf(w, "  %s@%s (%s)", d.Ident, d.Range, d.Type)
			if d.Resolved != "" {
				fmt.Fprintf(w, " -> %s", d.Resolved)
			}
			fmt.Fprintln(w)
		}
	}
}

func init() {
	rootCmd.AddCommand(workspacesCmd)
	workspacesCmd.SetHelpTemplate(checkHelpTemplate)
	addSourceFlags(workspacesCmd, true)
	workspacesCmd.Flags().BoolVarP(&workspacesQuiet, flags.FlagQuiet, "q", false, "Only print workspace paths")
}
