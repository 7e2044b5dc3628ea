package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moodsong/api/internal/domain"
	"github.com/moodsong/api/internal/repository"
	"github.com/moodsong/api/internal/service/auth"
	"github.com/moodsong/api/internal/service/catalog"
	"github.com/moodsong/api/internal/service/song"
	"github.com/moodsong/api/internal/service/usage"
	"github.com/moodsong/api/internal/validate"
)

// apiPrefix preserves the path layout existing clients depend on.
const apiPrefix = "/isa-be/ISA_BE"

// Router wires HTTP endpoints to services.
type Router struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	auth         auth.Service
	catalog      catalog.Service
	songs        song.Service
	usage        usage.Service
	limiter      RateLimiter
	tokenSources []TokenSource
	dbHealth     func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
	authRejections     *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateLimitRegister  = 5
	rateLimitLogin     = 12
	rateLimitUserWrite = 60
	rateLimitUserRead  = 120
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, catalogSvc catalog.Service, songSvc song.Service, usageSvc usage.Service, limiter RateLimiter, tokenSources []TokenSource, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:          http.NewServeMux(),
		logger:       logger,
		auth:         authSvc,
		catalog:      catalogSvc,
		songs:        songSvc,
		usage:        usageSvc,
		limiter:      limiter,
		tokenSources: tokenSources,
		dbHealth:     dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	if len(r.tokenSources) == 0 {
		r.tokenSources = NewTokenSources(nil)
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc(apiPrefix+"/login", r.audit("login", r.withRateLimit("login", rateLimitLogin, rateWindowDefault, rateLimitKeyIP, r.handleLogin)))
	r.mux.HandleFunc(apiPrefix+"/register", r.audit("register", r.withRateLimit("register", rateLimitRegister, rateWindowDefault, rateLimitKeyIP, r.handleRegister)))
	r.mux.HandleFunc(apiPrefix+"/logout", r.audit("logout", r.handleLogout))
	r.mux.HandleFunc(apiPrefix+"/create-song", r.audit("create-song", r.handlerAuthRate("create-song", rateLimitUserWrite, rateWindowDefault, r.handleCreateSong)))
	r.mux.HandleFunc(apiPrefix+"/songs/", r.audit("songs", r.handleSongFile))
	r.mux.HandleFunc(apiPrefix+"/activities", r.audit("activities", r.handleActivities))
	r.mux.HandleFunc(apiPrefix+"/activities/", r.audit("activities", r.handlerAuthRate("activities", rateLimitUserWrite, rateWindowDefault, r.handleActivityByID)))
	r.mux.HandleFunc(apiPrefix+"/adjectives", r.audit("adjectives", r.handleAdjectives))
	r.mux.HandleFunc(apiPrefix+"/adjectives/", r.audit("adjectives", r.handlerAuthRate("adjectives", rateLimitUserWrite, rateWindowDefault, r.handleAdjectiveByID)))
	r.mux.HandleFunc(apiPrefix+"/endpoints", r.audit("endpoints", r.handleEndpoints))
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload credentialsPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, issued, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing fields")
		case errors.Is(err, auth.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, auth.ErrInvalidPassword):
			writeError(w, http.StatusUnauthorized, "Invalid password")
		default:
			r.logger.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Error logging in")
		}
		return
	}
	http.SetCookie(w, r.authCookie(issued, int(r.auth.TokenTTL().Seconds())))
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload credentialsPayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := r.auth.Register(req.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Missing fields")
		case errors.Is(err, validate.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "Invalid email format")
		default:
			r.logger.Error("registration failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Error creating user")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	http.SetCookie(w, r.authCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// authCookie builds the session cookie. SameSite=None because the web
// client is served from a different origin.
func (r *Router) authCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     AuthCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func (r *Router) handleCreateSong(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	query := req.URL.Query()
	activity := strings.TrimSpace(query.Get("activity"))
	adjective1 := strings.TrimSpace(query.Get("adjective1"))
	adjective2 := strings.TrimSpace(query.Get("adjective2"))
	if activity == "" || adjective1 == "" || adjective2 == "" {
		writeError(w, http.StatusBadRequest, "Missing fields: need activity, adjective1, adjective2")
		return
	}
	created, err := r.songs.Create(req.Context(), activity, adjective1, adjective2)
	if err != nil {
		r.logger.Error("song generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate song")
		return
	}
	file, err := r.songs.Open(created.FileName)
	if err != nil {
		r.logger.Error("generated song missing on disk", "song_id", created.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to return song")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", created.FileName))
	w.Header().Set("X-Song-ID", created.ID)
	if _, err := io.Copy(w, file); err != nil {
		r.logger.Warn("song stream interrupted", "song_id", created.ID, "error", err)
	}
}

func (r *Router) handleSongFile(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	fileName := strings.TrimPrefix(req.URL.Path, apiPrefix+"/songs/")
	if fileName == "" {
		r.notFound(w)
		return
	}
	file, err := r.songs.Open(fileName)
	if err != nil {
		if errors.Is(err, song.ErrSongNotFound) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		r.logger.Error("song open failed", "file", fileName, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to stream song")
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", fileName))
	if _, err := io.Copy(w, file); err != nil {
		r.logger.Warn("song stream interrupted", "file", fileName, "error", err)
	}
}

func (r *Router) handleActivities(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		activities, err := r.catalog.ListActivities(req.Context())
		if err != nil {
			r.logger.Error("list activities failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch activities")
			return
		}
		writeJSON(w, http.StatusOK, activities)
	case http.MethodPost:
		r.handlerAuthRate("activities", rateLimitUserWrite, rateWindowDefault, r.handleAddActivity)(w, req)
	case http.MethodDelete:
		r.handlerAuthRate("activities", rateLimitUserWrite, rateWindowDefault, r.handleDeleteActivity)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleAddActivity(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		writeError(w, http.StatusBadRequest, "Missing activity name")
		return
	}
	activity, err := r.catalog.AddActivity(req.Context(), payload.Name)
	if err != nil {
		if errors.Is(err, validate.ErrInvalidWord) {
			writeError(w, http.StatusBadRequest, "Invalid activity name")
			return
		}
		r.logger.Error("add activity failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add activity")
		return
	}
	writeJSON(w, http.StatusCreated, activity)
}

func (r *Router) handleDeleteActivity(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		writeError(w, http.StatusBadRequest, "Missing activity name")
		return
	}
	if err := r.catalog.DeleteActivity(req.Context(), payload.Name); err != nil {
		if errors.Is(err, validate.ErrInvalidWord) {
			writeError(w, http.StatusBadRequest, "Invalid activity name")
			return
		}
		r.logger.Error("delete activity failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete activity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleActivityByID(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPatch {
		r.methodNotAllowed(w)
		return
	}
	id, ok := r.pathID(w, req, apiPrefix+"/activities/")
	if !ok {
		return
	}
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		writeError(w, http.StatusBadRequest, "Missing new name")
		return
	}
	activity, err := r.catalog.UpdateActivity(req.Context(), id, payload.Name)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrInvalidWord):
			writeError(w, http.StatusBadRequest, "Invalid activity name")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Activity not found")
		default:
			r.logger.Error("update activity failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update activity")
		}
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (r *Router) handleAdjectives(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		adjectives, err := r.catalog.ListAdjectives(req.Context())
		if err != nil {
			r.logger.Error("list adjectives failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch adjectives")
			return
		}
		writeJSON(w, http.StatusOK, adjectives)
	case http.MethodPost:
		r.handlerAuthRate("adjectives", rateLimitUserWrite, rateWindowDefault, r.handleAddAdjective)(w, req)
	case http.MethodDelete:
		r.handlerAuthRate("adjectives", rateLimitUserWrite, rateWindowDefault, r.handleDeleteAdjective)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleAddAdjective(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Word) == "" {
		writeError(w, http.StatusBadRequest, "Missing adjective word")
		return
	}
	adjective, err := r.catalog.AddAdjective(req.Context(), payload.Word)
	if err != nil {
		if errors.Is(err, validate.ErrInvalidWord) {
			writeError(w, http.StatusBadRequest, "Invalid adjective word")
			return
		}
		r.logger.Error("add adjective failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to add adjective")
		return
	}
	writeJSON(w, http.StatusCreated, adjective)
}

func (r *Router) handleDeleteAdjective(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Word) == "" {
		writeError(w, http.StatusBadRequest, "Missing adjective word")
		return
	}
	if err := r.catalog.DeleteAdjective(req.Context(), payload.Word); err != nil {
		if errors.Is(err, validate.ErrInvalidWord) {
			writeError(w, http.StatusBadRequest, "Invalid adjective word")
			return
		}
		r.logger.Error("delete adjective failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete adjective")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleAdjectiveByID(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPatch {
		r.methodNotAllowed(w)
		return
	}
	id, ok := r.pathID(w, req, apiPrefix+"/adjectives/")
	if !ok {
		return
	}
	var payload struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Word) == "" {
		writeError(w, http.StatusBadRequest, "Missing new word")
		return
	}
	adjective, err := r.catalog.UpdateAdjective(req.Context(), id, payload.Word)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrInvalidWord):
			writeError(w, http.StatusBadRequest, "Invalid adjective word")
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Adjective not found")
		default:
			r.logger.Error("update adjective failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to update adjective")
		}
		return
	}
	writeJSON(w, http.StatusOK, adjective)
}

func (r *Router) pathID(w http.ResponseWriter, req *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(req.URL.Path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		r.notFound(w)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (r *Router) handleEndpoints(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	type endpoint struct {
		Method string `json:"method"`
		Path   string `json:"path"`
	}
	endpoints := []endpoint{
		{http.MethodPost, apiPrefix + "/login"},
		{http.MethodPost, apiPrefix + "/register"},
		{http.MethodPost, apiPrefix + "/logout"},
		{http.MethodGet, apiPrefix + "/create-song"},
		{http.MethodGet, apiPrefix + "/songs/:fileName"},
		{http.MethodGet, apiPrefix + "/activities"},
		{http.MethodPost, apiPrefix + "/activities"},
		{http.MethodDelete, apiPrefix + "/activities"},
		{http.MethodPatch, apiPrefix + "/activities/:id"},
		{http.MethodGet, apiPrefix + "/adjectives"},
		{http.MethodPost, apiPrefix + "/adjectives"},
		{http.MethodDelete, apiPrefix + "/adjectives"},
		{http.MethodPatch, apiPrefix + "/adjectives/:id"},
	}
	writeJSON(w, http.StatusOK, map[string]any{"endpoints": endpoints})
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// audit logs each request, records metrics, and appends an endpoint
// usage row keyed to the authenticated user when one is present.
func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}

		entry := domain.EndpointUsage{
			Method:     req.Method,
			Endpoint:   req.URL.Path,
			StatusCode: status,
			CreatedAt:  time.Now().UTC(),
		}
		if info, ok := authInfoFromContext(ctx); ok {
			fields = append(fields, "user_id", info.UserID)
			userID := info.UserID
			entry.UserID = &userID
		}
		go r.usage.Record(entry)
		r.recordRequestMetrics(req.Method, route, status, duration)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

func (r *Router) applyRateHeaders(w http.ResponseWriter, limit int, decision rateDecision) {
	if limit <= 0 {
		return
	}
	remaining := limit - decision.count
	if remaining < 0 {
		remaining = 0
	}
	headers := w.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !decision.windowEnd.IsZero() {
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.windowEnd.Unix(), 10))
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}
