// Package health provides cached health-check endpoints for the API.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Configuration constants
const (
	DefaultCacheTTL     = 10 * time.Second
	DefaultCheckTimeout = 5 * time.Second
)

// Status represents the health check response.
type Status struct {
	Status    string                    `json:"status"`
	Service   string                    `json:"service"`
	Timestamp string                    `json:"timestamp"`
	Checks    map[string]ComponentCheck `json:"checks,omitempty"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BucketChecker verifies the object storage bucket is reachable.
type BucketChecker interface {
	HeadBucket(ctx context.Context) error
}

// StorePinger verifies the metadata store is reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// Config holds health checker configuration.
type Config struct {
	ServiceName  string
	ObjectStore  BucketChecker
	Store        StorePinger
	Logger       *slog.Logger
	CacheTTL     time.Duration
	CheckTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig(serviceName string, logger *slog.Logger) *Config {
	return &Config{
		ServiceName:  serviceName,
		Logger:       logger,
		CacheTTL:     DefaultCacheTTL,
		CheckTimeout: DefaultCheckTimeout,
	}
}

// Checker provides health check functionality.
type Checker struct {
	config     *Config
	mu         sync.RWMutex
	lastCheck  time.Time
	lastStatus *Status
}

// NewChecker creates a new health checker with the given configuration.
func NewChecker(config *Config) *Checker {
	return &Checker{config: config}
}

// Check performs health checks. Shallow checks may return a cached result;
// deep checks always probe the object store and metadata store.
func (c *Checker) Check(ctx context.Context, deep bool) *Status {
	if !deep {
		c.mu.RLock()
		if c.lastStatus != nil && time.Since(c.lastCheck) < c.config.CacheTTL {
			status := c.lastStatus
			c.mu.RUnlock()
			return status
		}
		c.mu.RUnlock()
	}

	status := &Status{
		Status:    "healthy",
		Service:   c.config.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]ComponentCheck),
	}

	if deep {
		if c.config.ObjectStore != nil {
			check := c.runCheck(ctx, c.config.ObjectStore.HeadBucket)
			status.Checks["object_store"] = check
			if check.Status != "healthy" {
				status.Status = "degraded"
			}
		}

		if c.config.Store != nil {
			check := c.runCheck(ctx, c.config.Store.Ping)
			status.Checks["metadata_store"] = check
			if check.Status != "healthy" {
				status.Status = "degraded"
			}
		}
	}

	c.mu.Lock()
	c.lastStatus = status
	c.lastCheck = time.Now()
	c.mu.Unlock()

	return status
}

func (c *Checker) runCheck(ctx context.Context, probe func(context.Context) error) ComponentCheck {
	ctx, cancel := context.WithTimeout(ctx, c.config.CheckTimeout)
	defer cancel()

	start := time.Now()
	err := probe(ctx)
	latency := time.Since(start)

	if err != nil {
		c.config.Logger.Warn("Health check failed", "error", err)
		return ComponentCheck{
			Status:  "unhealthy",
			Latency: latency.String(),
			Error:   err.Error(),
		}
	}

	return ComponentCheck{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// Handler returns the shallow health check HTTP handler.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.writeStatus(w, c.Check(r.Context(), false))
	}
}

// DeepHandler returns the deep health check HTTP handler.
func (c *Checker) DeepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.writeStatus(w, c.Check(r.Context(), true))
	}
}

func (c *Checker) writeStatus(w http.ResponseWriter, status *Status) {
	w.Header().Set("Content-Type", "application/json")
	if status.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		c.config.Logger.Error("Failed to encode health status", "error", err)
	}
}
