package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pattern-scanner/internal/events"
	"pattern-scanner/internal/logging"
	"pattern-scanner/internal/marketdata"
	"pattern-scanner/internal/scanner"
	"pattern-scanner/internal/universe"
)

// Server represents the HTTP API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	scanner    *scanner.Scanner
	client     *marketdata.Client
	universe   *universe.Universe
	eventBus   *events.EventBus
	hub        *WSHub
	config     ServerConfig
	log        zerolog.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	AllowedOrigins  string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	ProductionMode  bool
}

// NewServer creates a new API server
func NewServer(
	config ServerConfig,
	sc *scanner.Scanner,
	client *marketdata.Client,
	uni *universe.Universe,
	eventBus *events.EventBus,
) *Server {
	if config.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if config.AllowedOrigins == "" || config.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(config.AllowedOrigins, ",")
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(corsConfig))

	server := &Server{
		router:   router,
		scanner:  sc,
		client:   client,
		universe: uni,
		eventBus: eventBus,
		hub:      NewWSHub(),
		config:   config,
		log:      logging.Component("api"),
	}

	if eventBus != nil {
		eventBus.SubscribeAll(server.hub.BroadcastEvent)
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/patterns", s.handlePatterns)
		api.GET("/tickers", s.handleTickers)
		api.GET("/scan", s.handleScan)
		api.GET("/chart/:symbol", s.handleChart)
		api.GET("/stock/:symbol", s.handleStock)
		api.GET("/stats", s.handleStats)
		api.POST("/cache/clear", s.handleCacheClear)
	}

	s.router.GET("/ws/scan", s.handleScanStream)
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Start runs the HTTP server and blocks until it stops
func (s *Server) Start() error {
	go s.hub.Run()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info().Str("addr", addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}
