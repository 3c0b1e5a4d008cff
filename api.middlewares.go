package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// MiddlewareMap contains middlewares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}

// MiddlewaresStacks builds the public and the ops stacks. The
// first middleware of a stack is the outermost one.
func (api *APIHandler) MiddlewaresStacks() (*Middlewares, *Middlewares) {
	public := &Middlewares{
		api.RequestIDMiddleware,
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		api.CoreMiddleware,
		api.RateLimitMiddleware,
		api.MaintenanceModeMiddleware,
	}
	ops := &Middlewares{
		api.RequestIDMiddleware,
		api.PanicRecoveryMiddleware,
		api.RequestsCounterMiddleware,
		api.CoreMiddleware,
	}
	return public, ops
}

// Chain wraps a given httprouter.Handle with a list of middlewares.
// It does by starting from the last middleware from the list.
func (m *Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	if len(*m) == 0 {
		return h
	}
	lg := len(*m)
	handle := (*m)[lg-1](h)

	for i := lg - 2; i >= 0; i-- {
		handle = (*m)[i](handle)
	}

	return handle
}

// CoreMiddleware logs each request with its duration and records the response status statistics.
func (api *APIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := api.clock.Now()
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
		logger := api.logger.With(
			zap.String("request.id", requestID),
			zap.Uint64("request.num", GetRequestNumberFromContext(r.Context())),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
		)
		logger.Info(
			"request",
			zap.String("request.ip", GetRequestSourceIP(r)),
			zap.String("request.agent", r.UserAgent()),
			zap.String("request.referer", r.Referer()),
		)

		cw := NewCustomResponseWriter(w)
		next(cw, r, ps)

		api.stats.mu.Lock()
		api.stats.status[cw.Status()]++
		api.stats.mu.Unlock()

		logger.Info(
			"response",
			zap.Int("response.status", cw.Status()),
			zap.Int("response.bytes", cw.Bytes()),
			zap.Duration("request.duration", api.clock.Now().Sub(start)),
		)
	}
}

// RequestsCounterMiddleware increments the number of received requests statistics and add this
// new value to the request context to be used during logging as `request.num` field.
func (api *APIHandler) RequestsCounterMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), RequestNumberContextKey, atomic.AddUint64(&api.stats.called, 1))
		next(w, r.WithContext(ctx), ps)
	}
}

// RequestIDMiddleware generates and add a unique id to the request context.
func (api *APIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), RequestIDContextKey, api.idsHandler.Generate(RequestIDPrefix))
		next(w, r.WithContext(ctx), ps)
	}
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It renders the error page with 500.
func (api *APIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				api.logger.Error("panic occurred",
					zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)),
					zap.Any("error", rec),
				)
				w.Header().Set("Connection", "close")
				api.RenderError(w, r, fmt.Errorf("panic: %v", rec), ps.ByName("bookId"))
			}
		}()
		next(w, r, ps)
	}
}

// MaintenanceModeMiddleware answers every public request with 503
// and the maintenance message while the maintenance mode is enabled.
func (api *APIHandler) MaintenanceModeMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !api.mode.enabled.Load() {
			next(w, r, ps)
			return
		}
		api.mode.mu.RLock()
		message := api.mode.message
		api.mode.mu.RUnlock()
		if message == "" {
			message = "service currently unavailable. please come back later."
		}
		w.Header().Set("Retry-After", "120")
		data := &PageData{
			RequestID: GetValueFromContext(r.Context(), RequestIDContextKey),
			Error:     &ErrorView{Status: http.StatusServiceUnavailable, Message: message},
		}
		if err := api.views.Render(w, http.StatusServiceUnavailable, ViewError, data); err != nil {
			api.logger.Error("failed to render maintenance page", zap.String("request.id", data.RequestID), zap.Error(err))
		}
	}
}

// RateLimitMiddleware rejects with 429 the clients which exceed their request rate.
// It is a no-op when the rate limiting is disabled.
func (api *APIHandler) RateLimitMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if api.limiter == nil {
			next(w, r, ps)
			return
		}
		ip := GetRequestClientIP(r, api.limiter.trusted)
		if api.limiter.Allow(ip) {
			next(w, r, ps)
			return
		}
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
		api.logger.Info("rate limit exceeded", zap.String("request.id", requestID), zap.String("request.ip", ip))
		data := &PageData{
			RequestID: requestID,
			Error:     &ErrorView{Status: http.StatusTooManyRequests, Message: "too many requests. please slow down."},
		}
		if err := api.views.Render(w, http.StatusTooManyRequests, ViewError, data); err != nil {
			api.logger.Error("failed to render rate limit page", zap.String("request.id", requestID), zap.Error(err))
		}
	}
}

// clientLimiter is the token bucket of one client ip.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientsLimiter keeps one token bucket per client ip. Buckets of
// clients idle for longer than clientIdleTTL are evicted.
type ClientsLimiter struct {
	mu        sync.Mutex
	clock     Clocker
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	trusted   []*net.IPNet
	lastSweep time.Time
}

const clientIdleTTL = 3 * time.Minute

func NewClientsLimiter(clock Clocker, rps float64, burst int, trusted []*net.IPNet) *ClientsLimiter {
	return &ClientsLimiter{
		clock:     clock,
		clients:   make(map[string]*clientLimiter),
		limit:     rate.Limit(rps),
		burst:     burst,
		trusted:   trusted,
		lastSweep: clock.Now(),
	}
}

// Allow consumes one token of the bucket of ip.
func (cl *ClientsLimiter) Allow(ip string) bool {
	now := cl.clock.Now()
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if now.Sub(cl.lastSweep) > time.Minute {
		for k, c := range cl.clients {
			if now.Sub(c.lastSeen) > clientIdleTTL {
				delete(cl.clients, k)
			}
		}
		cl.lastSweep = now
	}

	c, found := cl.clients[ip]
	if !found {
		c = &clientLimiter{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}
