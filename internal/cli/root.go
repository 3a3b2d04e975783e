package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Execute runs the draco CLI. A `.env` file in the working directory, when
// present, is loaded first.
func Execute() error {
	_ = godotenv.Load()
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "draco",
		Short:         "Derive route lists and typed declarations from OpenAPI documents",
		Long:          "draco reads an OpenAPI/Swagger document and writes a route list plus Scala and TypeScript Command/ViewModel declarations for every operation.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	flagErrors := func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	}
	cmd.SetFlagErrorFunc(flagErrors)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	for _, sub := range []*cobra.Command{newGenerateCmd(), newRoutesCmd(), newInitCmd()} {
		sub.SetFlagErrorFunc(flagErrors)
		cmd.AddCommand(sub)
	}

	return cmd
}
