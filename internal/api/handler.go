package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sander-remitly/knapsnack/internal/algorithm"
	"github.com/sander-remitly/knapsnack/internal/cache"
	"github.com/sander-remitly/knapsnack/internal/config"
	"github.com/sander-remitly/knapsnack/internal/logger"
	"github.com/sander-remitly/knapsnack/internal/mass"
	"github.com/sander-remitly/knapsnack/internal/models"
	"github.com/sander-remitly/knapsnack/internal/repo"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	repo      *repo.Repository
	cache     *cache.Cache
	cfg       config.Config
	startTime time.Time
}

// NewHandler creates a new API handler
func NewHandler(repository *repo.Repository, cacheInstance *cache.Cache, cfg config.Config) *Handler {
	return &Handler{
		repo:      repository,
		cache:     cacheInstance,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// SetupRouter configures the Chi router with all routes
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.Log))
	r.Use(middleware.Recoverer)
	r.Use(rateLimit(h.cfg.RateLimitRPS, h.cfg.RateLimitBurst))
	r.Use(corsMiddleware)

	// Unprefixed path for existing form clients
	r.Post("/knapsnack", h.HandleKnapsnack)

	r.Route("/api", func(r chi.Router) {
		r.Post("/knapsnack", h.HandleKnapsnack)
		r.Get("/presets", h.HandlePresets)
		r.Get("/health", h.HandleHealth)
		r.Get("/bottles", h.HandleGetBottles)
		r.Post("/bottles", h.HandleUpdateBottles)

		// Cache endpoints
		r.Get("/cache/stats", h.HandleCacheStats)
		r.Post("/cache/clear", h.HandleCacheClear)
	})

	return r
}

// HandleKnapsnack picks the bottle combination closest to the requested weight
func (h *Handler) HandleKnapsnack(w http.ResponseWriter, r *http.Request) {
	var req models.KnapsnackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := req.Validate(); err != nil {
		if models.IsMissingField(err) {
			respondError(w, http.StatusBadRequest, "Missing required fields", err)
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}

	bottles, err := req.WeightClasses()
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid bottles", err)
		return
	}
	if err := h.checkLimits(bottles); err != nil {
		respondError(w, http.StatusBadRequest, "Request too large", err)
		return
	}

	targetKg, err := mass.ParseKilograms(string(req.TargetWeight))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid target weight", err)
		return
	}
	target := mass.KilogramsToGrams(targetKg)

	bag := 0
	if req.BagWeight != nil {
		bag, err = mass.ParseGrams(string(*req.BagWeight), h.cfg.DefaultBagWeight)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid bag weight", err)
			return
		}
	}

	params := h.cfg.Solver
	if req.AllowOvershoot != nil {
		params.AllowOvershoot = *req.AllowOvershoot
	}
	if req.OvershootRatio != nil {
		params.OvershootRatio = *req.OvershootRatio
	}
	if req.BottlePenalty != nil {
		params.BottlePenalty = *req.BottlePenalty
	}

	query := cache.Query{Bottles: bottles, TargetWeight: target, BagWeight: bag, Params: params}

	// Try to get from cache first
	if cached, found := h.cache.Get(r.Context(), query); found {
		logger.Log.Info("Cache HIT",
			zap.Int("target_g", target),
			zap.Int("bag_g", bag),
			zap.Int("hit_count", cached.HitCount),
			zap.Duration("ttl", cached.CurrentTTL),
		)

		response := newResponse(target, bag, cached.Combo, cached.TotalWeight, cached.BottlesUsed, cached.Overshoot)
		response.CalculationTimeMs = cached.CalculationTimeMs
		response.Cached = true
		response.CacheTTL = cached.CurrentTTL.String()
		response.CacheHitCount = cached.HitCount

		respondJSON(w, http.StatusOK, response)
		return
	}

	start := time.Now()
	result, err := algorithm.Solve(bottles, target, bag, params)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, algorithm.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "Invalid request", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to solve", err)
		return
	}

	logger.Log.Info("Solved",
		zap.Int("target_g", target),
		zap.Int("bag_g", bag),
		zap.Int("classes", len(bottles)),
		zap.Int("total_g", result.TotalWeight),
		zap.Int("bottles_used", result.BottlesUsed),
		zap.Duration("duration", duration),
	)

	if err := h.cache.Set(r.Context(), query, result, duration.Milliseconds()); err != nil {
		logger.Log.Warn("Failed to cache result", zap.Error(err))
	}

	response := newResponse(target, bag, result.Combo, result.TotalWeight, result.BottlesUsed, result.Overshoot)
	response.CalculationTimeMs = duration.Milliseconds()

	respondJSON(w, http.StatusOK, response)
}

func newResponse(target, bag int, combo map[int]int, total, used int, overshoot bool) models.KnapsnackResponse {
	return models.KnapsnackResponse{
		TargetWeightKg:  float64(target) / 1000,
		BagWeightKg:     float64(bag) / 1000,
		TotalWeightKg:   float64(total) / 1000,
		Combo:           combo,
		BottlesUsed:     used,
		DifferenceGrams: total - target,
		Overshoot:       overshoot,
	}
}

// checkLimits keeps the reachable-weight table tractable.
func (h *Handler) checkLimits(bottles map[int]int) error {
	if len(bottles) > h.cfg.MaxClasses {
		return fmt.Errorf("at most %d bottle sizes are allowed, got %d", h.cfg.MaxClasses, len(bottles))
	}
	for w, n := range bottles {
		if n > h.cfg.MaxCount {
			return fmt.Errorf("at most %d bottles per size are allowed, got %d of %d g", h.cfg.MaxCount, n, w)
		}
	}
	return nil
}

// HandlePresets returns predefined bottle inventories
func (h *Handler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	response := models.PresetsResponse{
		Presets: models.GetPresets(),
	}
	respondJSON(w, http.StatusOK, response)
}

// HandleHealth returns service health status
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "connected"
	if err := h.repo.Ping(); err != nil {
		dbStatus = "disconnected"
	}

	response := models.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  dbStatus,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	respondJSON(w, http.StatusOK, response)
}

// HandleGetBottles returns the stored bottle inventory
func (h *Handler) HandleGetBottles(w http.ResponseWriter, r *http.Request) {
	bottles, err := h.repo.GetBottles()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get bottles", err)
		return
	}

	updatedAt, err := h.repo.LastUpdated()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get bottles", err)
		return
	}

	respondJSON(w, http.StatusOK, models.Inventory{
		Bottles:   bottles,
		UpdatedAt: updatedAt,
	})
}

// HandleUpdateBottles replaces the stored bottle inventory
func (h *Handler) HandleUpdateBottles(w http.ResponseWriter, r *http.Request) {
	var req models.InventoryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid bottles", err)
		return
	}

	bottles, err := models.ParseBottles(req.Bottles)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid bottles", err)
		return
	}
	if err := h.checkLimits(bottles); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid bottles", err)
		return
	}

	if err := h.repo.SetBottles(bottles); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update bottles", err)
		return
	}

	response := models.InventoryUpdateResponse{
		Bottles:   bottles,
		UpdatedAt: time.Now(),
		Message:   "Bottles updated successfully",
	}

	respondJSON(w, http.StatusOK, response)
}

// HandleCacheStats returns cache statistics
func (h *Handler) HandleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cache.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get cache stats", err)
		return
	}

	response := models.CacheStatsResponse{
		Enabled:    h.cache.IsEnabled(),
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		HitRate:    stats.HitRate,
		TotalKeys:  stats.TotalKeys,
		MemoryUsed: stats.MemoryUsed,
		Uptime:     stats.Uptime,
	}

	respondJSON(w, http.StatusOK, response)
}

// HandleCacheClear clears all cache entries
func (h *Handler) HandleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to clear cache", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Cache cleared successfully"})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Error("Error encoding JSON response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		fields := []zap.Field{
			zap.String("message", message),
			zap.Int("status", status),
			zap.Error(err),
		}
		if status >= http.StatusInternalServerError {
			logger.Log.Error("Request error", fields...)
		} else {
			logger.Log.Info("Request rejected", fields...)
		}
	}

	response := models.ErrorResponse{
		Error: message,
		Code:  status,
	}

	if err != nil {
		response.Message = err.Error()
	}

	respondJSON(w, status, response)
}
