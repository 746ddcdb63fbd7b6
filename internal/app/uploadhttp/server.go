package uploadhttp

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/sir_venger/upload_lite/internal/chunkstore"
	"github.com/sir_venger/upload_lite/internal/usecase/uploadsvc"
	"github.com/sir_venger/upload_lite/pkg/uploadproto"
)

// Stager принимает тело части во временный файл до передачи в сервис.
type Stager interface {
	Stage(r io.Reader) (*chunkstore.Staged, error)
}

type Options struct {
	Service       uploadsvc.Service
	Stager        Stager
	StaticDir     string
	MaxChunkBytes int64
	GCTTL         time.Duration
	Log           zerolog.Logger
}

// Server обслуживает HTTP API загрузки поверх сервиса uploadsvc.
type Server struct {
	svc           uploadsvc.Service
	stager        Stager
	maxChunkBytes int64
	gcTTL         time.Duration
	validate      *validator.Validate
	log           zerolog.Logger
}

// New создаёт HTTP-обработчик сервиса загрузок.
func New(opts Options) http.Handler {
	srv := &Server{
		svc:           opts.Service,
		stager:        opts.Stager,
		maxChunkBytes: opts.MaxChunkBytes,
		gcTTL:         opts.GCTTL,
		validate:      validator.New(),
		log:           opts.Log.With().Str("component", "uploadhttp").Logger(),
	}

	return srv.routes(opts.StaticDir)
}

// routes регистрирует обработчики загрузки, здоровья и GC.
func (a *Server) routes(staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.log))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/", a.alive)
	r.Get(uploadproto.PathHealth, a.health)
	r.Get(uploadproto.PathUploadedChunks, a.listChunks)
	r.Post(uploadproto.PathUpload, a.uploadChunk)
	r.Post(uploadproto.PathMerge, a.merge)
	r.Post(uploadproto.PathAdminGC, a.gcOnce)

	if staticDir != "" {
		r.NotFound(http.FileServer(http.Dir(staticDir)).ServeHTTP)
	}

	return r
}
