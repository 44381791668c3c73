// Package web provides the HTTP API over a ledger dataset.
//
// The server keeps the dataset in memory behind a read-write lock, reloads
// it from the data file when the file changes on disk, and pushes
// Server-Sent Events to connected clients on every reload or committed
// write.
//
// SECURITY WARNING: the server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"finledger/events"
	"finledger/invest"
	"finledger/ledger"
	"finledger/loader"
	"finledger/report"
)

// Server serves the ledger API. The dataset behind it is swapped atomically
// on file reload; handlers always read a consistent pair of stores.
type Server struct {
	Port         int
	Host         string
	Version      string
	WatchEnabled bool

	// RealizedFraction is passed through to the net-worth builder.
	RealizedFraction decimal.Decimal

	// ReconciliationThreshold is the gap above which the reconcile
	// endpoint flags an account. Zero means the ledger default.
	ReconciliationThreshold decimal.Decimal

	// ForecastLookbackDays overrides the forecaster's default history
	// window when positive. Requests can still override it per call.
	ForecastLookbackDays int

	// OnDatasetLoaded is called with the fresh store after every load or
	// reload. Callers use it to attach external consumers such as a
	// message-queue publisher.
	OnDatasetLoaded func(*ledger.Store)

	mu        sync.RWMutex
	store     *ledger.Store
	snapshots *invest.Store

	dataFile string
	bus      *events.Bus

	// reloadClients receive a notice when the data file is reloaded.
	reloadMu      sync.Mutex
	reloadClients map[chan string]struct{}
}

// New creates a server around the given data file.
func New(port int, dataFile string) *Server {
	return &Server{
		Port:     port,
		Host:     "127.0.0.1",
		dataFile: dataFile,
	}
}

// Start loads the dataset, optionally starts the file watcher, and serves
// until the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s.dataFile == "" {
		return fmt.Errorf("data file is required")
	}

	s.bus = events.NewBus()
	s.reloadClients = make(map[chan string]struct{})

	if err := s.reloadDataset(ctx); err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			return fmt.Errorf("start file watcher: %w", err)
		}
	}

	router := s.setupRouter()
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	slog.InfoContext(ctx, "Server listening", "addr", addr, "file", s.dataFile)
	return http.ListenAndServe(addr, router)
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	api := router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/accounts", s.handleGetAccounts)
	api.GET("/balances", s.handleGetBalances)
	api.GET("/reconcile", s.handleReconcile)
	api.GET("/transactions", s.handleGetTransactions)
	api.POST("/transactions", s.handlePostTransaction)
	api.GET("/reports/monthly", s.handleMonthly)
	api.GET("/reports/yearly", s.handleYearly)
	api.GET("/reports/overview", s.handleTotalOverview)
	api.GET("/reports/overview/:year", s.handleYearlyOverview)
	api.GET("/reports/budgets", s.handleBudgets)
	api.GET("/reports/subscriptions", s.handleSubscriptions)
	api.GET("/reports/goals", s.handleGoals)
	api.GET("/forecast", s.handleForecast)
	api.GET("/projection", s.handleProjection)
	api.GET("/events", s.handleSSE)

	return router
}

// stores returns the current store pair under the read lock.
func (s *Server) stores() (*ledger.Store, *invest.Store) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store, s.snapshots
}

// reloadDataset loads or reloads the dataset from disk. Caller must NOT
// hold the mutex.
func (s *Server) reloadDataset(ctx context.Context) error {
	ds, err := loader.New().Load(ctx, s.dataFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.store = ds.Ledger
	s.snapshots = ds.Snapshots
	s.mu.Unlock()

	// Committed writes on the fresh store flow to SSE subscribers.
	s.bus.Attach(ds.Ledger)
	if s.OnDatasetLoaded != nil {
		s.OnDatasetLoaded(ds.Ledger)
	}
	return nil
}

func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(s.dataFile); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dataFile, err)
	}

	go s.runWatcher(ctx, watcher)
	return nil
}

// runWatcher processes file system events with debouncing. Editors often
// write files in multiple steps, and atomic saves show up as remove/rename.
func (s *Server) runWatcher(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		watcher.Close()
	}()

	const debounceDelay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				s.handleFileChange(ctx, watcher)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

func (s *Server) handleFileChange(ctx context.Context, watcher *fsnotify.Watcher) {
	if err := s.reloadDataset(ctx); err != nil {
		slog.Error("Failed to reload dataset", "file", s.dataFile, "error", err)
		return
	}

	// Re-add the file; atomic saves replace the inode the watch was on.
	if err := watcher.Add(s.dataFile); err != nil {
		slog.Warn("Failed to re-watch data file", "file", s.dataFile, "error", err)
	}

	s.broadcastReload()
	slog.Info("Dataset reloaded", "file", s.dataFile)
}

func (s *Server) addReloadClient() (chan string, func()) {
	ch := make(chan string, 4)
	s.reloadMu.Lock()
	s.reloadClients[ch] = struct{}{}
	s.reloadMu.Unlock()

	return ch, func() {
		s.reloadMu.Lock()
		delete(s.reloadClients, ch)
		s.reloadMu.Unlock()
	}
}

func (s *Server) broadcastReload() {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	for ch := range s.reloadClients {
		select {
		case ch <- "reload":
		default:
		}
	}
}

// handleSSE streams reload notices and committed-write events to the client.
func (s *Server) handleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	reloads, removeReload := s.addReloadClient()
	defer removeReload()
	changes, cancelChanges := s.bus.Subscribe()
	defer cancelChanges()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(c.Writer, "event: connected\ndata: ok\n\n")
	flusher.Flush()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case msg := <-reloads:
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", msg, msg)
			flusher.Flush()
		case ev, ok := <-changes:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: change\ndata: %s\n\n", ev.Kind.String())
			flusher.Flush()
		}
	}
}

// netWorthBuilder returns a builder configured with the server's realized
// fraction and the current snapshot store.
func (s *Server) netWorthBuilder(snapshots *invest.Store) *report.NetWorthBuilder {
	b := report.NewNetWorthBuilder()
	if !s.RealizedFraction.IsZero() {
		b.RealizedFraction = s.RealizedFraction
	}
	if snapshots != nil {
		b.Snapshots = snapshots
	}
	return b
}
