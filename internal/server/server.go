package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/chartfeed/chartfeed/internal/engine"
	"github.com/chartfeed/chartfeed/internal/store"
	"github.com/chartfeed/chartfeed/models"
)

// Server exposes the query, symbol and cache-admin surfaces over HTTP.
type Server struct {
	engine  *engine.Engine
	store   *store.Store
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a server. rps bounds the accepted request rate; 0 disables
// limiting.
func New(e *engine.Engine, s *store.Store, rps int) *Server {
	srv := &Server{
		engine: e,
		store:  s,
		logger: log.With().Str("component", "server").Logger(),
	}
	if rps > 0 {
		srv.limiter = rate.NewLimiter(rate.Limit(rps), rps*2)
	}
	return srv
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.limiter != nil {
		r.Use(s.rateLimit())
	}

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.GET("/history", s.handleHistory)
		api.GET("/symbols", s.handleSymbols)
		api.GET("/symbols/search", s.handleSymbolSearch)
		api.POST("/symbols", s.handleRegisterSymbol)
		api.GET("/replay/cache", s.handleCacheEntries)
		api.DELETE("/replay/cache", s.handleCacheClear)
	}
	return r
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			rateLimitedTotal.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func observe(endpoint, method string, start time.Time) {
	requestsTotal.WithLabelValues(endpoint, method).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (s *Server) handleHealth(c *gin.Context) {
	start := time.Now()
	defer observe("/health", c.Request.Method, start)
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "chartfeed",
		"symbols": len(s.store.List()),
	})
}

// handleHistory is the query surface: symbol, resolution, from, to, and an
// optional replay flag. An unknown symbol is the only error; "no data"
// answers 200 with s=no_data.
func (s *Server) handleHistory(c *gin.Context) {
	start := time.Now()
	defer observe("/api/v1/history", c.Request.Method, start)

	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, models.HistoryResponse{Status: models.StatusError, ErrMsg: "symbol required"})
		return
	}
	resolution := c.DefaultQuery("resolution", "5")
	from := parseEpoch(c.Query("from"), 0)
	to := parseEpoch(c.Query("to"), time.Now().Unix())
	replayMode := c.Query("replay") == "true" || c.Query("replay") == "1"

	res, err := s.engine.Query(symbol, resolution, from, to, replayMode)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownSymbol) {
			queryStatusTotal.WithLabelValues(models.StatusError).Inc()
			c.JSON(http.StatusNotFound, models.HistoryResponse{Status: models.StatusError, ErrMsg: "unknown symbol: " + symbol})
			return
		}
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("history query failed")
		c.JSON(http.StatusInternalServerError, models.HistoryResponse{Status: models.StatusError, ErrMsg: err.Error()})
		return
	}

	queryStatusTotal.WithLabelValues(res.Status).Inc()
	c.JSON(http.StatusOK, models.NewHistoryResponse(res))
}

func (s *Server) handleSymbols(c *gin.Context) {
	start := time.Now()
	defer observe("/api/v1/symbols", c.Request.Method, start)
	c.JSON(http.StatusOK, s.store.List())
}

func (s *Server) handleSymbolSearch(c *gin.Context) {
	start := time.Now()
	defer observe("/api/v1/symbols/search", c.Request.Method, start)
	c.JSON(http.StatusOK, s.store.Search(c.Query("query")))
}

// handleRegisterSymbol adds symbol metadata. It never attaches bar data;
// a series-less symbol simply answers "no data" on queries.
func (s *Server) handleRegisterSymbol(c *gin.Context) {
	start := time.Now()
	defer observe("/api/v1/symbols", c.Request.Method, start)

	var info models.SymbolInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if info.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol required"})
		return
	}
	s.store.Register(info)
	s.logger.Info().Str("symbol", info.Symbol).Msg("symbol registered")
	c.JSON(http.StatusCreated, info)
}

func (s *Server) handleCacheEntries(c *gin.Context) {
	start := time.Now()
	defer observe("/api/v1/replay/cache", c.Request.Method, start)

	entries := s.engine.CacheEntries()
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}

func (s *Server) handleCacheClear(c *gin.Context) {
	start := time.Now()
	defer observe("/api/v1/replay/cache", c.Request.Method, start)
	c.JSON(http.StatusOK, gin.H{"removed": s.engine.ClearCache()})
}

func parseEpoch(v string, def int64) int64 {
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
