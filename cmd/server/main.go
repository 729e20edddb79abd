package main

import (
	"context"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/blog-platform/internal/blogs"
	"github.com/example/blog-platform/internal/comments"
	"github.com/example/blog-platform/internal/engagement"
	"github.com/example/blog-platform/internal/handlers"
	"github.com/example/blog-platform/internal/platform/auth"
	"github.com/example/blog-platform/internal/platform/cache"
	"github.com/example/blog-platform/internal/platform/config"
	"github.com/example/blog-platform/internal/platform/db"
	"github.com/example/blog-platform/internal/platform/events"
	"github.com/example/blog-platform/internal/platform/httpserver"
	"github.com/example/blog-platform/internal/platform/logging"
	"github.com/example/blog-platform/internal/platform/natsconn"
	"github.com/example/blog-platform/internal/platform/run"
	"github.com/example/blog-platform/internal/store"
	"github.com/example/blog-platform/internal/trending"
	"github.com/example/blog-platform/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	blogStore, commentStore, userStore, closePool := initStores(log)
	if closePool != nil {
		defer closePool()
	}
	cacheImpl := initCache(log)
	publisher, closeNATS := initEvents(log)
	if closeNATS != nil {
		defer closeNATS()
	}

	blogSvc := &blogs.Service{
		Blogs: blogStore, Comments: commentStore,
		Timeout: cfg.StoreTimeout, Log: log,
	}
	commentSvc := &comments.Service{
		Comments: commentStore, Blogs: blogStore, Names: userStore,
		Events: publisher, Timeout: cfg.StoreTimeout, Log: log,
	}
	engagementSvc := &engagement.Service{
		Blogs: blogStore, Events: publisher,
		Timeout: cfg.StoreTimeout, Log: log,
	}
	trendingSvc := &trending.Service{
		Blogs: blogStore, Cache: cacheImpl,
		Cfg: trending.Config{
			LookbackDays:    cfg.Trending.LookbackDays,
			Gravity:         cfg.Trending.Gravity,
			HotTagsLimit:    cfg.Trending.HotTagsLimit,
			RefreshInterval: cfg.Trending.RefreshInterval,
			CacheTTL:        cfg.Trending.CacheTTL,
		},
		Timeout: cfg.StoreTimeout, Log: log,
	}
	userSvc := &users.Service{Users: userStore, Timeout: cfg.StoreTimeout, Log: log}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	verifier := auth.JWTVerifier{Secret: []byte(jwtSecret)}

	r := chi.NewRouter()
	httpserver.SetupRouter(r)

	// Public routes, some annotated per-viewer when a token is present.
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(verifier))
		r.Get("/v1/blogs/trending", handlers.TrendingBlogs(trendingSvc))
		r.Get("/v1/blogs/{blog_id}", handlers.GetBlog(engagementSvc))
	})
	r.Post("/v1/users", handlers.RegisterUser(userSvc))
	r.Get("/v1/users/{user_id}", handlers.GetUser(userSvc))
	r.Get("/v1/blogs/tags/hottest", handlers.HottestTags(trendingSvc))
	r.Get("/v1/blogs/views/hottest", handlers.HottestByViews(blogSvc))
	r.Get("/v1/blogs/search", handlers.SearchBlogs(blogSvc))
	r.Get("/v1/blogs/author/{author_id}", handlers.ListAuthorBlogs(blogSvc))
	r.Get("/v1/blogs/{blog_id}/preview", handlers.GetBlogPreview(blogSvc))
	r.Get("/v1/blogs/{blog_id}/comments", handlers.ListComments(commentSvc))
	r.Get("/v1/comments/{root_id}/replies", handlers.ListReplies(commentSvc))

	// Write routes require authentication.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/blogs", handlers.CreateBlog(blogSvc))
		r.Patch("/v1/blogs/{blog_id}", handlers.PatchBlog(blogSvc))
		r.Delete("/v1/blogs/{blog_id}", handlers.DeleteBlog(blogSvc))
		r.Get("/v1/blogs/author/me", handlers.ListMyBlogs(blogSvc))
		r.Post("/v1/blogs/{blog_id}/like", handlers.ToggleLike(engagementSvc))
		r.Post("/v1/comments", handlers.CreateComment(commentSvc))
		r.Delete("/v1/comments/{comment_id}", handlers.DeleteComment(commentSvc))
	})

	srv := httpserver.New(httpserver.Options{
		Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r,
	})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go trendingSvc.StartRefresher(ctx)
		go runner.Graceful(ctx, srv.Shutdown)
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores selects the persistence backend. In production
// (APP_ENV=production) a working Postgres connection is required and the
// process terminates without one; elsewhere missing or broken Postgres
// falls back to the in-memory stores.
func initStores(log *zap.Logger) (store.BlogStore, store.CommentStore, store.UserStore, func()) {
	isProd := strings.EqualFold(strings.TrimSpace(os.Getenv("APP_ENV")), "production")

	memory := func() (store.BlogStore, store.CommentStore, store.UserStore, func()) {
		return store.NewInMemoryBlogStore(), store.NewInMemoryCommentStore(), store.NewInMemoryUserStore(), nil
	}

	pool, err := db.Open(context.Background())
	if err != nil {
		if isProd {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory stores", zap.Error(err))
		return memory()
	}

	log.Info("stores: postgres")
	return store.NewPostgresBlogStore(pool),
		store.NewPostgresCommentStore(pool),
		store.NewPostgresUserStore(pool),
		pool.Close
}

// initCache selects the hot-tags cache backend, same prod-required /
// dev-fallback policy as the stores.
func initCache(log *zap.Logger) cache.Cache {
	isProd := strings.EqualFold(strings.TrimSpace(os.Getenv("APP_ENV")), "production")

	url := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if url == "" {
		if isProd {
			log.Error("REDIS_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("REDIS_URL not set, using in-memory cache (development only)")
		return cache.NewMemoryCache()
	}

	rc, err := cache.NewRedisCache(url)
	if err == nil {
		err = rc.Ping(context.Background())
	}
	if err != nil {
		if isProd {
			log.Error("redis is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
		return cache.NewMemoryCache()
	}

	log.Info("cache: redis")
	return rc
}

// initEvents wires the engagement event publisher. NATS is optional in
// every environment; without it events are dropped silently.
func initEvents(log *zap.Logger) (*events.Publisher, func()) {
	nc, err := natsconn.Connect(natsconn.Options{})
	if err != nil {
		log.Warn("nats unavailable, engagement events disabled", zap.Error(err))
		return events.New(nil, log), nil
	}
	js, err := nc.JetStream()
	if err != nil {
		log.Warn("jetstream unavailable, engagement events disabled", zap.Error(err))
		nc.Close()
		return events.New(nil, log), nil
	}
	log.Info("events: nats jetstream")
	return events.New(js, log), nc.Close
}
