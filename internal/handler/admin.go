package handler

import (
	"net/http"
	"runtime"
	"time"

	"hdgstudio-market-api/internal/model"
	"hdgstudio-market-api/internal/repository"
	"hdgstudio-market-api/pkg/apierror"
	"hdgstudio-market-api/pkg/response"
)

// AdminHandler handles admin dashboard HTTP requests.
type AdminHandler struct {
	accounts  repository.AccountRepository
	finance   repository.FinanceRepository
	dbType    string // account backend: mysql, sqlite or postgres
	loginKey  string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	accounts repository.AccountRepository,
	finance repository.FinanceRepository,
	dbType string,
	loginKey string,
) *AdminHandler {
	return &AdminHandler{
		accounts:  accounts,
		finance:   finance,
		dbType:    dbType,
		loginKey:  loginKey,
		startTime: time.Now(),
	}
}

// checkLoginKey validates the X-Login-Key header.
func (h *AdminHandler) checkLoginKey(r *http.Request) error {
	if h.loginKey == "" {
		return apierror.ServiceUnavailable("admin login key not configured")
	}
	if r.Header.Get("X-Login-Key") != h.loginKey {
		return apierror.Unauthorized("invalid login key")
	}
	return nil
}

// VerifyLogin handles POST /api/v1/admin/login
func (h *AdminHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.checkLoginKey(r); err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "ok"})
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if err := h.checkLoginKey(r); err != nil {
		response.Error(w, err)
		return
	}

	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb": float64(memStats.HeapAlloc) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	// Marketplace stats
	marketplace := make(map[string]interface{})
	if active, err := h.accounts.GetByStatus(ctx, model.AccountActive); err == nil {
		marketplace["active_listings"] = len(active)
	}
	if sold, err := h.accounts.GetByStatus(ctx, model.AccountSold); err == nil {
		marketplace["sold_listings"] = len(sold)
	}
	stats["marketplace"] = marketplace

	// Cash flow
	if summary, err := h.finance.Summary(ctx); err == nil {
		stats["cash_flow"] = summary
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// GetFinanceRecords handles GET /api/v1/admin/finance
func (h *AdminHandler) GetFinanceRecords(w http.ResponseWriter, r *http.Request) {
	if err := h.checkLoginKey(r); err != nil {
		response.Error(w, err)
		return
	}

	records, err := h.finance.GetAll(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, records)
}

// GetFinanceSummary handles GET /api/v1/admin/finance/summary
func (h *AdminHandler) GetFinanceSummary(w http.ResponseWriter, r *http.Request) {
	if err := h.checkLoginKey(r); err != nil {
		response.Error(w, err)
		return
	}

	summary, err := h.finance.Summary(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, summary)
}
