package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool

	stdout io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample draco configuration file",
		Long:  "Scaffold a commented draco configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
				stdout:     cmd.OutOrStdout(),
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", "draco.yaml", "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	stdout := cfg.stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = "draco.yaml"
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# draco configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path or URL to the OpenAPI/Swagger document (http/https or local file).
# input: ./openapi.yaml

# Output directory (dir sink) or key prefix (s3 sink). Defaults to dist.
# out: ./dist

# Targets to emit (scala, typescript). Defaults to both.
# targets: [scala, typescript]

# Handler placeholder in route lines.
# handler: Handler

# Parameter types used in route lines (scala|typescript).
# routeParams: scala

# Naming of nested declarations: capitalize (familyCommand -> FamilyCommand)
# or camel (family_command -> FamilyCommand).
# naming: capitalize

# Render [T, "null"] properties as Option[T] / T | null.
# nullable: false

# Reject duplicate path parameter names instead of keeping the last one.
# strictParams: false

# Validate the document with kin-openapi before parsing.
# validate: false

# Per-target token overrides.
# tokens:
#   scala:
#     integer: Long
#     viewModelDate: OffsetDateTime
#   typescript:
#     date: string

# Only include operations with these tags, methods or paths (regular expressions).
# includeTags: [public]
# excludeTags: [internal]
# methods: [get, put]
# paths: ["^/users"]

# Maximum number of paths rendered concurrently (0 = number of CPUs).
# parallelism: 0

# Where to write artifacts: dir or s3. The s3 sink reads DRACO_S3_ENDPOINT,
# DRACO_S3_REGION, DRACO_S3_ACCESS_KEY, DRACO_S3_SECRET_KEY, DRACO_S3_BUCKET,
# DRACO_S3_PREFIX and DRACO_S3_USE_SSL from the environment or a .env file.
# sink: dir

# Remove previous output before writing.
# clean: false

# Preview planned outputs without writing files.
# dryRun: false

# Write into a non-empty output directory.
# force: false

# Enable verbose logging.
# verbose: false
`
