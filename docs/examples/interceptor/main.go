// Example: an HTTP client that reports upstream outages, with YAML/env
// configuration, Prometheus metrics on /metrics and the cached decision on /status.
package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BigKAA/apidown/apidown"
	_ "github.com/BigKAA/apidown/apidown/checks" // grpc://, postgres://, redis://... targets
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// apidown.yaml is optional; APIDOWN_UNTRUSTED_URL etc. override it.
	cfg, err := apidown.LoadConfig(os.Getenv("APIDOWN_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}
	if cfg.UntrustedURL == "" {
		cfg.UntrustedURL = "https://payment.internal:8443/health"
	}

	checker, err := apidown.New(
		apidown.FromConfig(cfg),
		apidown.WithLogger(logger),
		apidown.WithRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		log.Fatal(err)
	}

	upstream := &http.Client{
		Timeout:   10 * time.Second,
		Transport: checker.Interceptor(nil),
	}

	http.HandleFunc("/pay", func(w http.ResponseWriter, r *http.Request) {
		resp, err := upstream.Get("https://payment.internal:8443/v1/charge")
		switch {
		case errors.Is(err, apidown.ErrAPIDown):
			http.Error(w, "payment provider is down", http.StatusServiceUnavailable)
			return
		case err != nil:
			http.Error(w, "payment request failed", http.StatusBadGateway)
			return
		}
		defer func() { _ = resp.Body.Close() }()
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	})

	http.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(checker.Status())
	})

	http.Handle("/metrics", promhttp.Handler())

	logger.Info("listening", slog.String("addr", ":9090"))
	if err := http.ListenAndServe(":9090", nil); err != nil {
		log.Fatal(err)
	}
}
