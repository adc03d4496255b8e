package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/dendrotool/dendro/pkg/cache"
	"github.com/dendrotool/dendro/pkg/dendro"
	"github.com/dendrotool/dendro/pkg/export"
	"github.com/dendrotool/dendro/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string // listen address
	redis    string // Redis address for the response cache
	cacheDir string // file cache directory (ignored when --redis is set)
	mongoURI string // when set, the argument is a stored tree ID
	mongoDB  string // Mongo database name
	ttl      time.Duration
}

// newServeCmd creates the serve command, exposing a parsed tree over an
// HTTP API. The tree is loaded once at startup; the node table is read-only
// after construction, so handlers share it without locking.
func newServeCmd() *cobra.Command {
	opts := serveOpts{addr: ":8080", mongoDB: "dendro", ttl: cache.DefaultTTL}

	cmd := &cobra.Command{
		Use:   "serve <tree.json | tree-id>",
		Short: "Serve a parsed tree over HTTP",
		Long: `Serve a parsed tree over an HTTP API.

The argument is a flat tree file, or a stored tree ID when --mongo is set.
GET responses are cached; pick the backend with --redis or --cache-dir
(no caching without either).

Routes:
  GET /healthz
  GET /tree
  GET /nodes
  GET /nodes/{name}
  GET /nodes/{name}/ancestors
  GET /nodes/{name}/descendants
  GET /levels/{level}

Examples:
  dendro serve tree.json
  dendro serve tree.json --redis localhost:6379
  dendro serve 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --mongo mongodb://localhost`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runServe(c.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address for the response cache")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "file cache directory for the response cache")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "Mongo URI; the argument becomes a stored tree ID")
	cmd.Flags().StringVar(&opts.mongoDB, "mongo-db", opts.mongoDB, "Mongo database name")
	cmd.Flags().DurationVar(&opts.ttl, "cache-ttl", opts.ttl, "response cache TTL")

	return cmd
}

// server bundles the immutable tree state shared by all handlers.
type server struct {
	tree   *dendro.Tree
	counts dendro.Counts
	doc    export.Document
	logger *charmlog.Logger
}

func runServe(ctx context.Context, source string, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	tree, counts, err := loadServeTree(ctx, source, opts)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %d nodes", tree.Len())

	respCache, err := newServeCache(ctx, opts)
	if err != nil {
		return err
	}
	defer respCache.Close()

	s := &server{
		tree:   tree,
		counts: counts,
		doc:    export.FromTree(tree, counts),
		logger: logger,
	}

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           s.router(respCache, opts.ttl),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Listening on %s", opts.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// loadServeTree loads the tree from a file, or from the Mongo store when
// --mongo is set.
func loadServeTree(ctx context.Context, source string, opts *serveOpts) (*dendro.Tree, dendro.Counts, error) {
	if opts.mongoURI == "" {
		return export.ReadTreeFile(source)
	}
	s, err := store.NewMongoStore(ctx, opts.mongoURI, opts.mongoDB)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()
	doc, err := s.Load(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	return doc.Tree()
}

// newServeCache picks the response cache backend from the flags.
func newServeCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	switch {
	case opts.redis != "":
		return cache.NewRedisCache(ctx, opts.redis, "dendro:")
	case opts.cacheDir != "":
		return cache.NewFileCache(opts.cacheDir)
	default:
		return cache.NewNullCache(), nil
	}
}

// router assembles the chi route table.
func (s *server) router(c cache.Cache, ttl time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(cached(c, ttl, s.logger))
		r.Get("/tree", s.handleTree)
		r.Get("/nodes", s.handleNodes)
		r.Get("/nodes/{name}", s.handleNode)
		r.Get("/nodes/{name}/ancestors", s.handleAncestors)
		r.Get("/nodes/{name}/descendants", s.handleDescendants)
		r.Get("/levels/{level}", s.handleLevel)
	})

	return r
}

// logRequests logs one debug line per request.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debugf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Microsecond))
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.doc)
}

func (s *server) handleNodes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tree.Names())
}

func (s *server) handleNode(w http.ResponseWriter, r *http.Request) {
	n, ok := s.tree.Node(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown node")
		return
	}
	writeJSON(w, http.StatusOK, s.nodeRecord(n))
}

func (s *server) handleAncestors(w http.ResponseWriter, r *http.Request) {
	n, ok := s.tree.Node(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown node")
		return
	}
	writeJSON(w, http.StatusOK, n.Ancestors())
}

func (s *server) handleDescendants(w http.ResponseWriter, r *http.Request) {
	n, ok := s.tree.Node(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown node")
		return
	}
	writeJSON(w, http.StatusOK, n.Descendants())
}

func (s *server) handleLevel(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil || level < 0 {
		writeError(w, http.StatusBadRequest, "level must be a non-negative integer")
		return
	}
	recs := []export.NodeRecord{}
	for _, n := range s.tree.NodesAtLevel(level) {
		recs = append(recs, s.nodeRecord(n))
	}
	writeJSON(w, http.StatusOK, recs)
}

// nodeRecord converts a node to its wire form, including the count when a
// census was loaded.
func (s *server) nodeRecord(n *dendro.Node) export.NodeRecord {
	rec := export.NodeRecord{
		Name:        n.Name(),
		Level:       n.Level(),
		Ancestors:   n.Ancestors(),
		Children:    n.Children(),
		Descendants: n.Descendants(),
	}
	if s.counts != nil {
		rec.Count = s.counts[n.Name()]
	}
	return rec
}

// =============================================================================
// Response helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// =============================================================================
// Cache middleware
// =============================================================================

// cached is a middleware that serves 200-status GET responses from c. The
// key is the request path hashed, so query-less routes map one-to-one.
func cached(c cache.Cache, ttl time.Duration, logger *charmlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cache.Key(r.URL.RequestURI())

			if data, hit, err := c.Get(r.Context(), key); err != nil {
				logger.Warnf("cache get: %v", err)
			} else if hit {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "hit")
				_, _ = w.Write(data)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status == http.StatusOK {
				if err := c.Set(r.Context(), key, rec.body.Bytes(), ttl); err != nil {
					logger.Warnf("cache set: %v", err)
				}
			}
		})
	}
}

// responseRecorder tees the response body so the middleware can store it.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
