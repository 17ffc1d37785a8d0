package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lxp-platform/qna-engine/api/responses"
	"github.com/lxp-platform/qna-engine/pkg/config"
	pkgerrors "github.com/lxp-platform/qna-engine/pkg/errors"
	"github.com/lxp-platform/qna-engine/pkg/logger"
)

const envHeader = "X-QnaEngine-Env"

// Pinger is the readiness surface dependencies expose.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency names a pingable dependency for the readiness probe.
type Dependency struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every wired dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		for _, dep := range deps {
			if dep.Pinger == nil {
				continue
			}
			if err := dep.Pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s not ready", dep.Name)))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
