package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/svgsprite/pkg/errors"
	"github.com/matzehuels/svgsprite/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags  compileFlags
		bundle string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List bundles and the symbol ids they contain",
		Long: `Compile the icon tree, pick a bundle and print its symbol ids together with
the markup that references each one.

Without --bundle or --all an interactive list is shown when stdout is a
terminal; otherwise every bundle is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cacheCfg, err := flags.resolve(cmd, c.Logger)
			if err != nil {
				return err
			}
			interactive := bundle == "" && !all && isatty.IsTerminal(os.Stdout.Fd())
			return c.runInspect(cmd.Context(), opts, flags.noCache, cacheCfg, bundle, interactive)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&bundle, "bundle", "b", "", "bundle to print")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "print every bundle")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options, noCache bool, cacheCfg cacheConfig, bundle string, interactive bool) error {
	runner, err := c.newRunner(ctx, noCache, cacheCfg)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Compiling %s...", opts.Input))
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}
	spinner.Stop()
	printFailures(result.Failures)

	if len(result.Bundles) == 0 {
		printWarning("No bundles in %s", opts.Input)
		return nil
	}

	switch {
	case bundle != "":
		info, ok := result.Bundles[bundle]
		if !ok {
			return errors.New(errors.ErrCodeBundleNotFound, "bundle %q not found (have %v)", bundle, result.Names())
		}
		fmt.Fprintln(out, symbolTable(bundle, info, opts.ElementClass))

	case interactive:
		final, err := tea.NewProgram(NewBundleListModel(result.Bundles)).Run()
		if err != nil {
			return err
		}
		m, ok := final.(BundleListModel)
		if !ok || m.Selected == "" {
			printDetail("No selection made")
			return nil
		}
		fmt.Fprintln(out, symbolTable(m.Selected, result.Bundles[m.Selected], opts.ElementClass))

	default:
		for _, name := range result.Names() {
			fmt.Fprintln(out, symbolTable(name, result.Bundles[name], opts.ElementClass))
		}
	}
	return nil
}
