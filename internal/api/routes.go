package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/silencecut/silencecut/internal/cache"
	"github.com/silencecut/silencecut/internal/config"
	"github.com/silencecut/silencecut/internal/export"
	"github.com/silencecut/silencecut/internal/media"
	"github.com/silencecut/silencecut/internal/plan"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Post("/plan", planHandler(cfg))
	r.Post("/export", exportHandler(cfg))
	r.Get("/media", mediaHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: config.Version,
			UptimeS: uptime,
		})
	}
}

func planHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := validate.Struct(&req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		params := req.Params()

		switch {
		case req.Report != "":
			if req.SourceDuration <= 0 {
				WriteError(w, http.StatusBadRequest, "source_duration is required with a report", "BAD_REQUEST")
				return
			}
			p, err := plan.BuildFromReport(req.Report, req.SourceDuration, params)
			if err != nil {
				writePlanError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, planResponse(p, false))

		case req.Path != "":
			p, cached, err := planForPath(r.Context(), cfg, req.Path, params, req.NoCache)
			if err != nil {
				writePlanError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, planResponse(p, cached))

		default:
			WriteError(w, http.StatusBadRequest, "report or path is required", "BAD_REQUEST")
		}
	}
}

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := validate.Struct(&req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		format, err := export.ForName(req.Format)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		if err := export.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		ctx := r.Context()
		p, _, err := planForPath(ctx, cfg, req.Path, req.Params(), req.NoCache)
		if err != nil {
			writePlanError(w, err)
			return
		}
		if p.Empty() {
			WriteError(w, http.StatusUnprocessableEntity, "plan keeps nothing, refusing to export", "EMPTY_PLAN")
			return
		}

		proxyPath, err := cfg.Tools.EnsureMonoProxy(ctx, req.Path, cfg.ProxySampleRate, req.RegenProxy)
		if err != nil {
			writePlanError(w, err)
			return
		}
		probe, err := cfg.Tools.Probe(ctx, proxyPath)
		if err != nil {
			writePlanError(w, err)
			return
		}

		title := export.SanitizeTitle(req.Title)
		if req.Title == "" {
			base := filepath.Base(req.Path)
			title = export.SanitizeTitle(strings.TrimSuffix(base, filepath.Ext(base)) + "__nosilence")
		}

		doc, err := format.Render(p, probe.MediaRef(proxyPath), title)
		if err != nil {
			writePlanError(w, err)
			return
		}

		outputPath := filepath.Join(req.OutputDir, title+"."+format.Extension())
		if err := os.WriteFile(outputPath, doc, 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, ExportResponse{
			Status:          "ok",
			Format:          format.Extension(),
			OutputPath:      outputPath,
			ProxyPath:       proxyPath,
			ClipCount:       len(p.Keeps),
			KeptDuration:    p.KeptDuration(),
			RemovedDuration: p.RemovedDuration(),
			WarningCount:    len(p.Warnings),
		})
	}
}

// mediaHandler streams the mono proxy of a source file for audition.
// The playback server refuses anything that is not a proxy.
func mediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		if path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		proxyPath := path
		if !strings.HasPrefix(filepath.Base(path), media.ProxyPrefix) {
			proxyPath = media.ProxyPath(path)
		}

		if err := cfg.Playback.ServeProxy(w, r, proxyPath); err != nil {
			cfg.Logger.Error("playback error", "error", err, "path", proxyPath)
		}
	}
}

// planForPath runs the detection pipeline for a media file, consulting
// the plan cache when one is configured.
func planForPath(ctx context.Context, cfg ServerConfig, path string, params plan.Params, noCache bool) (*plan.Plan, bool, error) {
	if err := params.Validate(); err != nil {
		return nil, false, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, false, err
	}

	var fingerprint string
	if cfg.Cache != nil {
		fp, err := cache.Fingerprint(path, params)
		if err != nil {
			return nil, false, err
		}
		fingerprint = fp
		if !noCache {
			if p, ok, err := cfg.Cache.Get(ctx, fingerprint); err == nil && ok {
				return p, true, nil
			}
		}
	}

	duration, err := cfg.Tools.Duration(ctx, path)
	if err != nil {
		return nil, false, err
	}
	report, err := cfg.Tools.DetectSilence(ctx, path, params.ThresholdDb, params.MinSilenceSec, params.AudioStreamIndex)
	if err != nil {
		return nil, false, err
	}
	p, err := plan.BuildFromReport(report, duration, params)
	if err != nil {
		return nil, false, err
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.Put(ctx, fingerprint, path, p); err != nil {
			cfg.Logger.Warn("plan cache write failed", "error", err, "path", path)
		}
	}
	return p, false, nil
}

func planResponse(p *plan.Plan, cached bool) PlanResponse {
	return PlanResponse{
		Plan:            p,
		Cached:          cached,
		KeptDuration:    p.KeptDuration(),
		RemovedDuration: p.RemovedDuration(),
	}
}

func writePlanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrInvalidParameter):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, export.ErrEmptyPlan):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "EMPTY_PLAN")
	case errors.Is(err, media.ErrUpstream):
		WriteError(w, http.StatusBadGateway, err.Error(), "UPSTREAM_ERROR")
	case os.IsNotExist(err):
		WriteError(w, http.StatusNotFound, "media file not found", "NOT_FOUND")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
