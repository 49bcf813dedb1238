package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/svgsprite/pkg/pipeline"
)

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		flags  compileFlags
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the icon tree into sprite bundles",
		Long: `Compile every .svg file under the input directory into sprite bundles.

Icons directly under the input root go to the default sprite; icons in a
subdirectory go to a bundle named after the directory path joined with "-".
Each icon becomes a <symbol> whose id is its relative path joined with "-":

  assets/svg/logo.svg            -> icons.svg      #logo
  assets/svg/nav/home.svg        -> nav.svg        #nav-home
  assets/svg/ui/forms/check.svg  -> ui-forms.svg   #ui-forms-check

Icons that fail to compile are reported and left out; the rest of the
bundle is still written. Compiled symbols are cached, so unchanged icons
are not recompiled on the next run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cacheCfg, err := flags.resolve(cmd, c.Logger)
			if err != nil {
				return err
			}
			result, err := c.runBuild(cmd.Context(), opts, flags.noCache, cacheCfg)
			if err != nil {
				return err
			}
			if strict && len(result.Failures) > 0 {
				return fmt.Errorf("%s failed to compile", plural(len(result.Failures), "icon"))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error if any icon fails")

	return cmd
}

// runBuild compiles once and prints what was written.
func (c *CLI) runBuild(ctx context.Context, opts pipeline.Options, noCache bool, cacheCfg cacheConfig) (*pipeline.Result, error) {
	runner, err := c.newRunner(ctx, noCache, cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Compiling %s...", opts.Input))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Build failed")
		return nil, err
	}
	spinner.Stop()

	printResult(result)
	if result.Stats.Symbols > 0 {
		printNewline()
		printNextStep("Browse symbols", appName+" inspect")
	}
	return result, nil
}
