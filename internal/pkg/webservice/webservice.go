package webservice

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/ohowland/lvnet/internal/pkg/engine"
	"github.com/ohowland/lvnet/internal/pkg/logging"
	"github.com/ohowland/lvnet/internal/pkg/metrics"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/project"
	"go.uber.org/zap"
)

const contentType = "application/json; charset=UTF-8"

// maxBodyBytes bounds a posted project.
const maxBodyBytes = 16 << 20

// App serves calculations over HTTP.
type App struct {
	Engine    *engine.Engine
	Publisher *msg.PubSub
	Metrics   *metrics.Registry
	Logger    *zap.Logger
}

type errorBody struct {
	Error string `json:"error"`
}

// Router returns the service routes.
func (app *App) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(app.instrument)

	r.HandleFunc("/healthz", app.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/calculate", app.CalculateHandler).Methods(http.MethodPost)
	r.HandleFunc("/cabletypes", app.CableTypesHandler).Methods(http.MethodGet)
	if app.Publisher != nil {
		r.HandleFunc("/stream", app.StreamHandler).Methods(http.MethodGet)
	}
	if app.Metrics != nil {
		r.Handle("/metrics", app.Metrics.Handler()).Methods(http.MethodGet)
	}
	return r
}

func (app *App) logger() *zap.Logger {
	return logging.OrNop(app.Logger)
}

// HealthHandler reports the service as up.
func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CableTypesHandler returns the default cable catalog.
func (app *App) CableTypesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, network.DefaultCableTypes())
}

// CalculateHandler runs a calculation on the posted project. The scenario and cosPhi
// query parameters are optional; the scenario defaults to mixed and the power factor
// to the engine's.
func (app *App) CalculateHandler(w http.ResponseWriter, r *http.Request) {
	scenario := network.Mixed
	if s := r.URL.Query().Get("scenario"); s != "" {
		parsed, err := network.ParseScenario(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		scenario = parsed
	}

	e := app.Engine
	if s := r.URL.Query().Get("cosPhi"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("cosPhi: not a number"))
			return
		}
		if e, err = e.WithCosPhi(v); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
	}

	p, err := project.Decode(io.LimitReader(r.Body, maxBodyBytes), bodyFormat(r))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	res, err := e.Compute(p.Network(), scenario)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	app.logger().Debug("calculated",
		zap.String("project", p.Name),
		zap.String("scenario", scenario.String()),
		zap.String("compliance", string(res.Compliance)))
	writeJSON(w, http.StatusOK, res)
}

func bodyFormat(r *http.Request) project.Format {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return project.YAML
	}
	return project.JSON
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, network.ErrSourceCount),
		errors.Is(err, network.ErrUnknownCableType),
		errors.Is(err, network.ErrInvalidNetwork):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument logs and records every request under its route template.
func (app *App) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		// streams are long lived and hijack the connection
		if path == "/stream" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		status := strconv.Itoa(rec.status)
		if app.Metrics != nil {
			app.Metrics.RecordHTTPRequest(r.Method, path, status, elapsed)
		}
		app.logger().Debug("request",
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", elapsed))
	})
}
