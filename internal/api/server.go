package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fastprodman/fortunewheel/internal/config"
)

// NewServer creates and returns a configured *http.Server for the wheel API.
func NewServer(port uint16, handler http.Handler) *http.Server {
	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Serve blocks serving srv, over TLS when tlsCfg has a cert/key pair. A
// graceful shutdown is not reported as an error.
func Serve(srv *http.Server, tlsCfg config.TLSConfig) error {
	var err error
	if tlsCfg.Enabled() {
		err = srv.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
	} else {
		err = srv.ListenAndServe()
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", srv.Addr, err)
	}

	return nil
}
