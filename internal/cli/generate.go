package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/mark3labs/draco/internal/artifact"
	"github.com/mark3labs/draco/internal/emitter"
	"github.com/mark3labs/draco/internal/generate"
	"github.com/mark3labs/draco/internal/route"
	"github.com/mark3labs/draco/internal/spec"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input        string
	Out          string
	Targets      []string
	Handler      string
	RouteParams  string
	Naming       string
	Nullable     bool
	StrictParams bool
	Validate     bool
	Clean        bool
	Sink         string
	Tokens       map[string]map[string]string
	IncludeTags  []string
	ExcludeTags  []string
	Methods      []string
	Paths        []string
	Parallelism  int
	ConfigPath   string
	DryRun       bool
	Force        bool
	Verbose      bool

	stdout io.Writer
	stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Targets:     append([]string(nil), generate.KnownTargets...),
		Handler:     "Handler",
		RouteParams: "scala",
		Naming:      "capitalize",
		Sink:        "dir",
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate routes and Command/ViewModel declarations from an OpenAPI document",
		Long: "Generate a route list and per-operation Command and ViewModel type declarations " +
			"from an OpenAPI/Swagger document. Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  draco generate --input openapi.yaml --out ./dist
  draco generate --input openapi.yaml --target scala --token scala.integer=Long
  draco --config draco.yaml generate --clean --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the OpenAPI/Swagger document")
	flags.String("out", "", "Output directory, or key prefix for the s3 sink (default dist)")
	flags.StringSlice("target", nil, "Targets to emit (scala|typescript); defaults to both")
	flags.String("handler", "", "Handler placeholder used in route lines (default Handler)")
	flags.String("route-params", "", "Parameter types used in route lines (scala|typescript)")
	flags.String("naming", "", "Naming of nested declarations (capitalize|camel)")
	flags.Bool("nullable", false, "Render [T, null] properties as optional types")
	flags.Bool("strict-params", false, "Reject duplicate path parameter names")
	flags.Bool("validate", false, "Validate the document with kin-openapi before parsing")
	flags.Bool("clean", false, "Remove previous output before writing")
	flags.String("sink", "", "Where to write artifacts (dir|s3)")
	flags.StringToString("token", nil, "Override a target token, e.g. scala.integer=Long")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include these methods (get,post,put,delete)")
	flags.StringSlice("paths", nil, "Only include paths matching these regular expressions")
	flags.Int("parallelism", 0, "Maximum number of paths rendered concurrently")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Write into a non-empty output directory")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()
	cfg.stdout = cmd.OutOrStdout()
	cfg.stderr = cmd.ErrOrStderr()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":        &cfg.Input,
		"out":          &cfg.Out,
		"handler":      &cfg.Handler,
		"route-params": &cfg.RouteParams,
		"naming":       &cfg.Naming,
		"sink":         &cfg.Sink,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}

	slices := map[string]*[]string{
		"target":       &cfg.Targets,
		"include-tags": &cfg.IncludeTags,
		"exclude-tags": &cfg.ExcludeTags,
		"methods":      &cfg.Methods,
		"paths":        &cfg.Paths,
	}
	for name, dst := range slices {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	bools := map[string]*bool{
		"nullable":      &cfg.Nullable,
		"strict-params": &cfg.StrictParams,
		"validate":      &cfg.Validate,
		"clean":         &cfg.Clean,
		"dry-run":       &cfg.DryRun,
		"force":         &cfg.Force,
		"verbose":       &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	if flags.Changed("parallelism") {
		value, err := flags.GetInt("parallelism")
		if err != nil {
			return err
		}
		cfg.Parallelism = value
	}

	if flags.Changed("token") {
		pairs, err := flags.GetStringToString("token")
		if err != nil {
			return err
		}
		tokens, err := parseTokenFlags(pairs)
		if err != nil {
			return newUsageError(fmt.Sprintf("generate: %v", err))
		}
		if cfg.Tokens == nil {
			cfg.Tokens = make(map[string]map[string]string)
		}
		for target, values := range tokens {
			if cfg.Tokens[target] == nil {
				cfg.Tokens[target] = make(map[string]string)
			}
			for k, v := range values {
				cfg.Tokens[target][k] = v
			}
		}
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Out = strings.TrimSpace(c.Out)
	c.Handler = strings.TrimSpace(c.Handler)
	c.RouteParams = strings.ToLower(strings.TrimSpace(c.RouteParams))
	c.Naming = strings.ToLower(strings.TrimSpace(c.Naming))
	c.Sink = strings.ToLower(strings.TrimSpace(c.Sink))
	c.Targets = sanitizeTags(c.Targets)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	c.Paths = sanitizeTags(c.Paths)
	methods := make([]string, 0, len(c.Methods))
	for _, m := range c.Methods {
		methods = append(methods, strings.ToLower(m))
	}
	c.Methods = sanitizeTags(methods)
	if c.Handler == "" {
		c.Handler = "Handler"
	}
	if c.Sink == "" {
		c.Sink = "dir"
	}
	if c.Out == "" && c.Sink == "dir" {
		c.Out = "dist"
	}
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag or config file)")
	}

	if len(c.Targets) == 0 {
		return newUsageError(fmt.Sprintf("generate: at least one --target is required (allowed: %s)", strings.Join(generate.KnownTargets, ", ")))
	}
	for _, t := range c.Targets {
		if _, ok := generate.CanonicalTarget(t); !ok {
			return newUsageError(fmt.Sprintf("generate: unsupported --target %q (allowed: %s)", t, strings.Join(generate.KnownTargets, ", ")))
		}
	}
	if c.RouteParams != "" {
		if _, ok := generate.CanonicalTarget(c.RouteParams); !ok {
			return newUsageError(fmt.Sprintf("generate: unsupported --route-params %q (allowed: %s)", c.RouteParams, strings.Join(generate.KnownTargets, ", ")))
		}
	}
	if _, err := emitter.NamingByName(c.Naming); err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}

	switch c.Sink {
	case "dir", "s3":
	default:
		return newUsageError(fmt.Sprintf("generate: unsupported --sink %q (allowed: dir, s3)", c.Sink))
	}

	for _, m := range c.Methods {
		if _, ok := route.Verb(m); !ok {
			return newUsageError(fmt.Sprintf("generate: unsupported method %q in --methods (allowed: get, post, put, delete)", m))
		}
	}

	if c.Parallelism < 0 {
		return newUsageError("generate: --parallelism must not be negative")
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", ")))
	}

	return nil
}

func (c *GenerateConfig) buildOptions() []spec.BuildOption {
	methods := make([]spec.HttpMethod, 0, len(c.Methods))
	for _, m := range c.Methods {
		methods = append(methods, spec.HttpMethod(m))
	}
	return []spec.BuildOption{
		spec.WithIncludeTags(c.IncludeTags),
		spec.WithExcludeTags(c.ExcludeTags),
		spec.WithMethods(methods),
		spec.WithPathPatterns(c.Paths),
		spec.WithStrictParams(c.StrictParams),
	}
}

func newLogger(verbose bool, w io.Writer) *log.Logger {
	if !verbose || w == nil {
		return log.New(io.Discard, "", 0)
	}
	return log.New(w, "draco: ", 0)
}

// loadAPIs reads, optionally validates, and parses the input document.
func loadAPIs(ctx context.Context, input string, validate bool, logger *log.Logger, opts ...spec.BuildOption) ([]spec.Api, error) {
	doc, err := spec.Load(ctx, input)
	if err != nil {
		return nil, friendlyError(err)
	}
	logger.Printf("loaded %s (version %d)", doc.Location, doc.Version)

	if validate {
		if err := spec.Validate(ctx, doc); err != nil {
			return nil, friendlyError(err)
		}
		logger.Printf("validated %s", doc.Location)
	}

	apis, err := spec.Parse(doc, opts...)
	if err != nil {
		return nil, friendlyError(err)
	}
	logger.Printf("parsed %d paths", len(apis))
	return apis, nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	stdout := cfg.stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	logger := newLogger(cfg.Verbose, cfg.stderr)

	// 1) Load and parse the document
	apis, err := loadAPIs(ctx, cfg.Input, cfg.Validate, logger, cfg.buildOptions()...)
	if err != nil {
		return err
	}

	// 2) Resolve targets and rendering options
	policies, err := generate.Targets(cfg.Targets, cfg.Tokens)
	if err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}
	naming, err := emitter.NamingByName(cfg.Naming)
	if err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}
	routeParams, err := routeParamRenderer(cfg.RouteParams, cfg.Tokens)
	if err != nil {
		return newUsageError(fmt.Sprintf("generate: %v", err))
	}

	// 3) Render everything in memory
	files, err := generate.Build(ctx, apis, generate.Options{
		Targets:     policies,
		Handler:     cfg.Handler,
		RouteParams: routeParams,
		Emit:        []emitter.Option{emitter.WithNaming(naming), emitter.WithNullable(cfg.Nullable)},
		Parallelism: cfg.Parallelism,
		Logger:      logger,
	})
	if err != nil {
		return friendlyError(err)
	}

	// 4) Plan or write
	if cfg.DryRun {
		staged := artifact.NewMemoryStore()
		if err := generate.Write(ctx, staged, files, logger); err != nil {
			return err
		}
		planned, err := generate.Plan(ctx, staged)
		if err != nil {
			return err
		}
		printPlan(stdout, describeDestination(cfg), planned)
		return nil
	}
	store, dest, err := openStore(cfg)
	if err != nil {
		return err
	}
	if err := generate.Write(ctx, store, files, logger); err != nil {
		return wrapOutputError(err, dest)
	}
	fmt.Fprintf(stdout, "Wrote %d files to %s\n", len(files), dest)
	return nil
}

func routeParamRenderer(name string, tokens map[string]map[string]string) (route.ParamRenderer, error) {
	if name == "" {
		return nil, nil
	}
	policies, err := generate.Targets([]string{name}, tokens)
	if err != nil {
		return nil, err
	}
	return policies[0], nil
}

func openStore(cfg *GenerateConfig) (artifact.Store, string, error) {
	switch cfg.Sink {
	case "s3":
		s3cfg := artifact.S3ConfigFromEnv()
		if cfg.Out != "" {
			s3cfg.Prefix = cfg.Out
		}
		store, err := artifact.NewS3Store(s3cfg)
		if err != nil {
			return nil, "", newUsageError(fmt.Sprintf("generate: s3 sink: %v\nHint: set DRACO_S3_ENDPOINT, DRACO_S3_ACCESS_KEY and DRACO_S3_SECRET_KEY (a .env file works).", err))
		}
		return store, describeDestination(cfg), nil
	default:
		store, err := artifact.NewDirStore(cfg.Out, artifact.DirOptions{Force: cfg.Force, Clean: cfg.Clean})
		if err != nil {
			return nil, "", newUsageError(fmt.Sprintf("generate: %v", err))
		}
		return store, store.Root(), nil
	}
}

func describeDestination(cfg *GenerateConfig) string {
	if cfg.Sink == "s3" {
		s3cfg := artifact.S3ConfigFromEnv()
		prefix := s3cfg.Prefix
		if cfg.Out != "" {
			prefix = cfg.Out
		}
		return "s3://" + strings.TrimSuffix(s3cfg.Bucket+"/"+strings.Trim(prefix, "/"), "/")
	}
	if store, err := artifact.NewDirStore(cfg.Out, artifact.DirOptions{}); err == nil {
		return store.Root()
	}
	return cfg.Out
}

func printPlan(w io.Writer, dest string, planned []generate.PlannedFile) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", dest, len(planned))
	for _, p := range planned {
		fmt.Fprintf(w, "- %s (%d bytes)\n", p.RelPath, p.Size)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force/--clean when appropriate.", outDir, msg))
	}
	return err
}
