package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/svgsprite/pkg/cache"
	"github.com/matzehuels/svgsprite/pkg/errors"
	"github.com/matzehuels/svgsprite/pkg/observability"
	"github.com/matzehuels/svgsprite/pkg/pipeline"
	"github.com/matzehuels/svgsprite/pkg/sprite"
)

const (
	defaultAddr     = "127.0.0.1:3001"
	shutdownTimeout = 5 * time.Second
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags compileFlags
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve compiled sprite bundles over HTTP",
		Long: `Compile the icon tree and serve the result for development:

  GET /sprites              bundle names, member ids and failures (JSON)
  GET /sprites/{name}.svg   one bundle document
  GET /sprite-data.mjs      ES module exporting every bundle
  GET /icons/{path}         a source icon, for comparison

With --watch the icon tree is recompiled on change and new requests see
the new bundles.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, cacheCfg, err := flags.resolve(cmd, c.Logger)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), opts, flags.noCache, cacheCfg, addr, watch)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "recompile when icons change")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, noCache bool, cacheCfg cacheConfig, addr string, watch bool) error {
	runner, err := c.newRunner(ctx, noCache, cacheCfg)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := newSpriteServer(opts, c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	srv.publish(result)

	var w *watcher
	if watch {
		if w, err = newWatcher(opts.Input, defaultDebounce, c.Logger); err != nil {
			return err
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if w != nil {
			w.fs.Close()
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	httpServer := &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	printSuccess("Serving %s", plural(len(result.Bundles), "bundle"))
	printKeyValue("sprites", StyleLink.Render("http://"+ln.Addr().String()+"/sprites"))
	printKeyValue("module", StyleLink.Render("http://"+ln.Addr().String()+"/sprite-data.mjs"))
	printFailures(result.Failures)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if w != nil {
		g.Go(func() error {
			return w.run(gctx, func(ctx context.Context) {
				c.rebuild(ctx, runner, opts, srv.publish)
			})
		})
	}
	return g.Wait()
}

// =============================================================================
// Sprite Server
// =============================================================================

// spriteServer serves the latest published compilation result.
type spriteServer struct {
	opts   pipeline.Options
	logger *log.Logger

	mu     sync.RWMutex
	result *pipeline.Result
	module string
}

func newSpriteServer(opts pipeline.Options, logger *log.Logger) *spriteServer {
	return &spriteServer{opts: opts, logger: logger, result: &pipeline.Result{}}
}

// publish makes result visible to new requests.
func (s *spriteServer) publish(result *pipeline.Result) {
	module, err := sprite.RenderModule(result.Content, s.opts.ModuleOptions())
	if err != nil {
		s.logger.Error("render module", "err", err)
	}
	s.mu.Lock()
	s.result = result
	s.module = module
	s.mu.Unlock()
}

func (s *spriteServer) snapshot() (*pipeline.Result, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.module
}

func (s *spriteServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/sprites", s.handleList)
	r.Get("/sprites/{file}", s.handleBundle)
	r.Get("/sprite-data.mjs", s.handleModule)
	r.Get("/icons/*", s.handleIcon)

	return r
}

// observe reports every request to the HTTP hooks and the debug log.
func (s *spriteServer) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "elapsed", elapsed)
	})
}

type spriteListing struct {
	RunID    string                   `json:"run_id"`
	Bundles  map[string]bundleListing `json:"bundles"`
	Failures []failureListing         `json:"failures"`
}

type bundleListing struct {
	URL     string   `json:"url"`
	Symbols []string `json:"symbols"`
}

type failureListing struct {
	Icon   string `json:"icon,omitempty"`
	Bundle string `json:"bundle,omitempty"`
	Stage  string `json:"stage"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
}

func (s *spriteServer) handleList(w http.ResponseWriter, r *http.Request) {
	result, _ := s.snapshot()
	listing := spriteListing{
		RunID:    result.RunID,
		Bundles:  make(map[string]bundleListing, len(result.Bundles)),
		Failures: make([]failureListing, 0, len(result.Failures)),
	}
	for name, b := range result.Bundles {
		listing.Bundles[name] = bundleListing{URL: "/sprites/" + name + sprite.Ext, Symbols: b.Symbols}
	}
	for _, f := range result.Failures {
		listing.Failures = append(listing.Failures, failureListing{
			Icon:   f.Icon,
			Bundle: f.Bundle,
			Stage:  f.Stage,
			Code:   string(errors.GetCode(f.Err)),
			Error:  errors.UserMessage(f.Err),
		})
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *spriteServer) handleBundle(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(chi.URLParam(r, "file"), sprite.Ext)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "not a bundle: %s", chi.URLParam(r, "file")))
		return
	}
	if err := errors.ValidateBundleName(name); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, _ := s.snapshot()
	content, ok := result.Content[name]
	if !ok {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeBundleNotFound, "bundle %q not found", name))
		return
	}
	writeContent(w, r, "image/svg+xml", content)
}

func (s *spriteServer) handleModule(w http.ResponseWriter, r *http.Request) {
	_, module := s.snapshot()
	if module == "" {
		writeError(w, http.StatusInternalServerError, errors.New(errors.ErrCodeInternal, "module unavailable"))
		return
	}
	writeContent(w, r, "text/javascript; charset=utf-8", module)
}

func (s *spriteServer) handleIcon(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	if err := errors.ValidatePath(rel); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if filepath.Ext(rel) != sprite.Ext {
		writeError(w, http.StatusNotFound, errors.New(errors.ErrCodeNotFound, "not an icon: %s", rel))
		return
	}
	data, err := os.ReadFile(filepath.Join(s.opts.Input, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, errors.Wrap(errors.ErrCodeFileNotFound, err, "icon %s not found", rel))
			return
		}
		writeError(w, http.StatusInternalServerError, errors.Wrap(errors.ErrCodeIO, err, "read icon %s", rel))
		return
	}
	writeContent(w, r, "image/svg+xml", string(data))
}

// writeContent writes body with an ETag and answers matching
// If-None-Match requests with 304.
func writeContent(w http.ResponseWriter, r *http.Request, contentType, body string) {
	etag := `"` + cache.Hash([]byte(body))[:16] + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"code":  string(errors.GetCode(err)),
		"error": errors.UserMessage(err),
	})
}
