package controllers

import (
	"net/http"
	"time"

	"github.com/lxp-platform/qna-engine/api/responses"
	"github.com/lxp-platform/qna-engine/pkg/config"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Info reports the service identity and runtime environment.
func Info(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"service": "qna-engine",
			"version": Version,
			"env":     cfg.App.Env,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
