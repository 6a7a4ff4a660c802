// Command modelzoo runs the control plane: it loads a YAML config,
// serves the operator dashboard and service-info surfaces on one
// listener and the multi-protocol inference proxy on another, and
// stops every locally launched model cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/modelzoo/modelzoo/pkg/config"
	"github.com/modelzoo/modelzoo/pkg/dashboard"
	"github.com/modelzoo/modelzoo/pkg/history"
	"github.com/modelzoo/modelzoo/pkg/logging"
	"github.com/modelzoo/modelzoo/pkg/protocol"
	"github.com/modelzoo/modelzoo/pkg/proxy"
	"github.com/modelzoo/modelzoo/pkg/registry"
	"github.com/modelzoo/modelzoo/pkg/serviceinfo"
	"github.com/modelzoo/modelzoo/pkg/swagger"
	modeltls "github.com/modelzoo/modelzoo/pkg/tls"
	"github.com/modelzoo/modelzoo/pkg/zoo"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var log = logrus.New()

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := os.Getenv("MODELZOO_CONFIG")
	if configPath == "" {
		configPath = "modelzoo.yaml"
	}
	proxyAddr := os.Getenv("MODELZOO_PROXY_ADDR")
	if proxyAddr == "" {
		proxyAddr = ":8000"
	}
	dashboardAddr := os.Getenv("MODELZOO_DASHBOARD_ADDR")
	if dashboardAddr == "" {
		dashboardAddr = ":8080"
	}
	historyPath := os.Getenv("MODELZOO_HISTORY_PATH")
	if historyPath == "" {
		historyPath = "modelzoo_history.json"
	}

	appLog := logging.NewLogrus(log)
	protocols := protocol.NewDefaultRegistry(nil)

	resolved, err := config.Load(configPath, protocols, appLog)
	if err != nil {
		log.Fatalf("loading config %s: %v", configPath, err)
	}

	hist, err := history.Load(historyPath)
	if err != nil {
		log.Fatalf("loading launch history %s: %v", historyPath, err)
	}

	zoos := make(map[string]zoo.Zoo, len(resolved.Zoos))
	for _, z := range resolved.Zoos {
		zoos[z.Name()] = z
	}

	localTable := registry.NewLocalTable()
	reg := registry.New(localTable, resolved.Peers, http.DefaultClient)

	router := proxy.NewRouter(reg, protocols, http.DefaultClient, appLog)
	svcInfo := serviceinfo.New(localTable, Version, appLog)
	dashHandler := dashboard.New(zoos, resolved.Runtimes, resolved.Environments, localTable, hist, appLog)

	proxyServer := &http.Server{
		Addr:              proxyAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	dashboardMux := http.NewServeMux()
	dashHandler.RegisterRoutes(dashboardMux)
	svcInfo.RegisterRoutes(dashboardMux)
	dashboardMux.Handle("/metrics", router.MetricsHandler())
	dashboardMux.Handle("/docs/", http.StripPrefix("/docs/", swagger.NewHandler()))

	dashboardServer := &http.Server{
		Addr:              dashboardAddr,
		Handler:           dashboardMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	proxyErrors := make(chan error, 1)
	go func() {
		log.Infof("proxy listening on %s", proxyAddr)
		proxyErrors <- proxyServer.ListenAndServe()
	}()

	dashboardErrors := make(chan error, 1)
	if os.Getenv("MODELZOO_DASHBOARD_TLS") == "true" {
		certPath, keyPath, err := modeltls.EnsureCertificates(os.Getenv("MODELZOO_TLS_CERT"), os.Getenv("MODELZOO_TLS_KEY"))
		if err != nil {
			log.Fatalf("ensuring dashboard TLS certificates: %v", err)
		}
		tlsConfig, err := modeltls.LoadTLSConfig(certPath, keyPath)
		if err != nil {
			log.Fatalf("loading dashboard TLS config: %v", err)
		}
		dashboardServer.TLSConfig = tlsConfig
		go func() {
			log.Infof("dashboard listening on %s (tls)", dashboardAddr)
			dashboardErrors <- dashboardServer.ListenAndServeTLS("", "")
		}()
	} else {
		go func() {
			log.Infof("dashboard listening on %s", dashboardAddr)
			dashboardErrors <- dashboardServer.ListenAndServe()
		}()
	}

	select {
	case err := <-proxyErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Errorf("proxy server error: %v", err)
		}
	case err := <-dashboardErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Errorf("dashboard server error: %v", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := proxyServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("proxy shutdown error: %v", err)
	}
	if err := dashboardServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("dashboard shutdown error: %v", err)
	}

	dashHandler.Shutdown(shutdownCtx, false)
}
