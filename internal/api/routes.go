package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/arbengine/internal/db"
	"github.com/rawblock/arbengine/internal/registry"
	"github.com/rawblock/arbengine/pkg/models"
)

// APIHandler serves the read-only dashboard API plus a small admin group
// for manually triggering a resync. It never mutates the registry itself;
// only the reconciler and resync loop do that.
type APIHandler struct {
	reg     *registry.Registry
	dbStore *db.PostgresStore
	wsHub   *Hub
	resync  func() error

	mu     sync.RWMutex
	ranked []models.NetPositiveCycle
	bundle *models.NetPositiveCycle
}

// NewHandler builds an APIHandler. resyncFn may be nil if the resync loop
// isn't wired (e.g. in tests); the /admin/resync endpoint then reports 503.
func NewHandler(reg *registry.Registry, dbStore *db.PostgresStore, wsHub *Hub, resyncFn func() error) *APIHandler {
	return &APIHandler{reg: reg, dbStore: dbStore, wsHub: wsHub, resync: resyncFn}
}

// PublishTick updates the handler's latest-tick cache and fans it out over
// the websocket hub. Called once per pipeline tick by the coordinator.
func (h *APIHandler) PublishTick(ranked []models.NetPositiveCycle, bundle *models.NetPositiveCycle) {
	h.mu.Lock()
	h.ranked, h.bundle = ranked, bundle
	h.mu.Unlock()

	if h.wsHub != nil {
		h.wsHub.BroadcastTick(ranked, bundle)
	}
}

// SetupRouter builds the gin engine: a public read-only group (health, pool
// state, latest opportunities and their audit history, the websocket
// stream) and an admin group
// guarded by AuthMiddleware + a rate limiter.
func SetupRouter(handler *APIHandler) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", handler.wsHub.Subscribe)
		pub.GET("/pools", handler.handleGetPools)
		pub.GET("/opportunities", handler.handleGetOpportunities)
		pub.GET("/opportunities/history", handler.handleGetOpportunityHistory)
	}

	admin := r.Group("/api/v1/admin")
	admin.Use(AuthMiddleware())
	admin.Use(NewRateLimiter(10, 2).Middleware())
	{
		admin.POST("/resync", handler.handleTriggerResync)
	}

	return r
}

func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "operational",
		"poolCount":   h.reg.Len(),
		"dbConnected": h.dbStore != nil,
	})
}

// poolView is the JSON projection of a tracked pool; reserves are rendered
// as decimal strings since they're 256-bit and don't fit float64/int64.
type poolView struct {
	Name     string `json:"name"`
	From     string `json:"from"`
	To       string `json:"to"`
	Reserve0 string `json:"reserve0"`
	Reserve1 string `json:"reserve1"`
	FeeRate  uint64 `json:"feeRate"`
	IsStable bool   `json:"isStable"`
}

func (h *APIHandler) handleGetPools(c *gin.Context) {
	pairs := h.reg.Iter()
	out := make([]poolView, 0, len(pairs))
	for _, pair := range pairs {
		p, ok := h.reg.Get(pair.Index)
		if !ok {
			continue
		}
		out = append(out, poolView{
			Name:     p.Name,
			From:     p.From.String(),
			To:       p.To.String(),
			Reserve0: p.Reserve0.ToBig().String(),
			Reserve1: p.Reserve1.ToBig().String(),
			FeeRate:  p.FeeRate,
			IsStable: p.IsStable(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"pools": out})
}

func (h *APIHandler) handleGetOpportunities(c *gin.Context) {
	h.mu.RLock()
	ranked, bundle := h.ranked, h.bundle
	h.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"ranked": ranked, "bundle": bundle})
}

func (h *APIHandler) handleGetOpportunityHistory(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit store not connected"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := h.dbStore.GetRecentOpportunities(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *APIHandler) handleTriggerResync(c *gin.Context) {
	if h.resync == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "resync not wired"})
		return
	}
	if err := h.resync(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resync complete"})
}
