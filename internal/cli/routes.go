package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/draco/internal/generate"
	"github.com/mark3labs/draco/internal/route"
	"github.com/spf13/cobra"
)

// RoutesConfig captures the options for the routes command.
type RoutesConfig struct {
	Input       string
	Handler     string
	RouteParams string
	Verbose     bool

	stdout io.Writer
	stderr io.Writer
}

var routesRunner = runRoutes

func newRoutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route list of an OpenAPI document",
		Long:  "Print one route line per path and method, without writing any files.",
		Example: strings.TrimSpace(`  draco routes --input openapi.yaml
  draco routes --input openapi.yaml --handler controllers.Api.handle`),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			input, err := flags.GetString("input")
			if err != nil {
				return err
			}
			handler, err := flags.GetString("handler")
			if err != nil {
				return err
			}
			params, err := flags.GetString("route-params")
			if err != nil {
				return err
			}
			verbose, err := flags.GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &RoutesConfig{
				Input:       strings.TrimSpace(input),
				Handler:     strings.TrimSpace(handler),
				RouteParams: strings.ToLower(strings.TrimSpace(params)),
				Verbose:     verbose,
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
			}
			if cfg.Input == "" {
				return newUsageError("routes: --input is required")
			}
			if _, ok := generate.CanonicalTarget(cfg.RouteParams); !ok {
				return newUsageError(fmt.Sprintf("routes: unsupported --route-params %q (allowed: %s)", cfg.RouteParams, strings.Join(generate.KnownTargets, ", ")))
			}
			return routesRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("input", "", "Path or URL to the OpenAPI/Swagger document")
	cmd.Flags().String("handler", "Handler", "Handler placeholder used in route lines")
	cmd.Flags().String("route-params", "scala", "Parameter types used in route lines (scala|typescript)")

	return cmd
}

func runRoutes(ctx context.Context, cfg *RoutesConfig) error {
	stdout := cfg.stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	logger := newLogger(cfg.Verbose, cfg.stderr)

	apis, err := loadAPIs(ctx, cfg.Input, false, logger)
	if err != nil {
		return err
	}
	params, err := routeParamRenderer(cfg.RouteParams, nil)
	if err != nil {
		return newUsageError(fmt.Sprintf("routes: %v", err))
	}
	lines, err := generate.Routes(apis, route.WithHandler(cfg.Handler), route.WithParamRenderer(params))
	if err != nil {
		return friendlyError(err)
	}
	for _, line := range lines {
		fmt.Fprintln(stdout, line)
	}
	return nil
}
