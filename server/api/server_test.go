package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sx-network/lsp-deployer/server/api/middleware"
)

func TestServer_CORSExposesDeploymentID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CORS = true
	s := NewServer(cfg, zerolog.Nop())
	s.Router.HandleFunc("/lsp/deploy", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(middleware.DeploymentIDHeader, "dep-1")
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/lsp/deploy", nil)
	req.Header.Set("Origin", "http://ui.local")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	exposed := strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers"))
	require.Contains(t, exposed, "x-deployment-id")
	require.Contains(t, exposed, "x-request-id")
}

func TestServer_ShutdownDrainsRunningRequests(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.ShutdownTimeout = 5 * time.Second
	s := NewServer(cfg, zerolog.Nop())

	started := make(chan struct{})
	release := make(chan struct{})
	s.Router.HandleFunc("/slow", func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusCreated)
	})

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	require.Eventually(t, func() bool { return s.Addr() != nil }, time.Second, 5*time.Millisecond)

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + s.Addr().String() + "/slow")
		if err != nil {
			status <- 0
			return
		}
		_ = resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-started
	cancel()
	select {
	case <-done:
		t.Fatal("server stopped while a request was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.Equal(t, http.StatusCreated, <-status)
	require.NoError(t, <-done)
}
