// Package generate turns parsed Apis into the files of one run: the route
// list plus Command and ViewModel declarations for every target.
package generate

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"runtime"
	"sort"
	"strings"

	"github.com/mark3labs/draco/internal/artifact"
	"github.com/mark3labs/draco/internal/emitter"
	"github.com/mark3labs/draco/internal/route"
	"github.com/mark3labs/draco/internal/spec"
	"golang.org/x/sync/errgroup"
)

// RoutesFile is the path of the route list within a run.
const RoutesFile = "routes"

// Options controls a generation run.
type Options struct {
	Targets []emitter.Policy
	// Handler is the route handler placeholder; "Handler" when empty.
	Handler string
	// RouteParams renders parameter types in route lines; Scala when nil.
	RouteParams route.ParamRenderer
	Emit        []emitter.Option
	// Parallelism bounds concurrent Api rendering; GOMAXPROCS when <= 0.
	Parallelism int
	Logger      *log.Logger
}

// File is one generated artifact.
type File struct {
	Path    string
	Content []byte
}

// PlannedFile describes a file the run intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
}

type apiResult struct {
	routes []string
	files  []File
}

// Build renders every Api. Output order is stable: the route list first,
// then per Api and method the Command and ViewModel files per target.
func Build(ctx context.Context, apis []spec.Api, opts Options) ([]File, error) {
	if len(opts.Targets) == 0 {
		return nil, fmt.Errorf("generate: no targets")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if err := checkOperationIDs(apis); err != nil {
		return nil, err
	}

	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	routeOpts := []route.Option{route.WithHandler(opts.Handler)}
	if opts.RouteParams != nil {
		routeOpts = append(routeOpts, route.WithParamRenderer(opts.RouteParams))
	}

	results := make([]apiResult, len(apis))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range apis {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := renderAPI(apis[i], routeOpts, opts)
			if err != nil {
				return err
			}
			logger.Printf("rendered %s: %d routes, %d files", apis[i].Path, len(res.routes), len(res.files))
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var routes []string
	var files []File
	for _, res := range results {
		routes = append(routes, res.routes...)
		files = append(files, res.files...)
	}
	routeText := strings.Join(routes, "\n")
	if routeText != "" {
		routeText += "\n"
	}
	return append([]File{{Path: RoutesFile, Content: []byte(routeText)}}, files...), nil
}

// Routes returns the route list of all Apis: each Api's lines sorted, Apis
// in input order.
func Routes(apis []spec.Api, opts ...route.Option) ([]string, error) {
	var out []string
	for _, api := range apis {
		lines, err := sortedRoutes(api, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	return out, nil
}

func sortedRoutes(api spec.Api, opts []route.Option) ([]string, error) {
	lines, err := route.Build(api, opts...)
	if err != nil {
		return nil, err
	}
	sort.Strings(lines)
	return lines, nil
}

func renderAPI(api spec.Api, routeOpts []route.Option, opts Options) (apiResult, error) {
	lines, err := sortedRoutes(api, routeOpts)
	if err != nil {
		return apiResult{}, err
	}

	res := apiResult{routes: lines}
	for _, m := range api.Methods {
		for _, role := range []emitter.Role{emitter.Command, emitter.ViewModel} {
			content := m.RequestBody
			if role == emitter.ViewModel {
				content = m.Response
			}
			if content == nil {
				continue
			}
			for _, target := range opts.Targets {
				text := emitter.Emit(role.String(), content, role, target, opts.Emit...)
				res.files = append(res.files, File{
					Path:    FilePath(m.OperationID, role, target),
					Content: []byte(text),
				})
			}
		}
	}
	return res, nil
}

// FilePath is `<operationId>/<role>/<operationId>.<ext>`.
func FilePath(operationID string, role emitter.Role, target emitter.Policy) string {
	return path.Join(operationID, role.Dir(), operationID+"."+target.Extension())
}

// checkOperationIDs rejects ids that would collide or escape the output root.
func checkOperationIDs(apis []spec.Api) error {
	seen := make(map[string]string)
	for _, api := range apis {
		for _, m := range api.Methods {
			id := m.OperationID
			if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
				return fmt.Errorf("generate: operationId %q under %s can not be used as a file name", id, api.Path)
			}
			where := m.Token + " " + api.Path
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("generate: duplicate operationId %q (%s and %s)", id, prev, where)
			}
			seen[id] = where
		}
	}
	return nil
}

// Plan lists the files held by store, sorted by path.
func Plan(ctx context.Context, store artifact.Store) ([]PlannedFile, error) {
	paths, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	planned := make([]PlannedFile, 0, len(paths))
	for _, p := range paths {
		content, err := store.Get(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", p, err)
		}
		planned = append(planned, PlannedFile{RelPath: p, Size: len(content)})
	}
	sort.Slice(planned, func(i, j int) bool { return planned[i].RelPath < planned[j].RelPath })
	return planned, nil
}

// Write stores files in order and stops at the first failure.
func Write(ctx context.Context, store artifact.Store, files []File, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := store.Put(ctx, f.Path, f.Content); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		logger.Printf("wrote %s (%d bytes)", f.Path, len(f.Content))
	}
	return nil
}
