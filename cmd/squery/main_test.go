package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/woozymasta/squery/internal/config"
)

func TestOneShotCommandsFail(t *testing.T) {
	cfg := &config.Config{}
	cfg.A2S.RecvTimeout = 100 * time.Millisecond
	cfg.A2S.SendTimeout = 100 * time.Millisecond
	cfg.Args.Address = "host:notaport"

	assert.Equal(t, 1, runPlayers(context.Background(), cfg))
	assert.Equal(t, 1, runInfo(cfg))
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg, err := config.Load([]string{
		"serve",
		"--auth-token", "secret",
		"--address", "127.0.0.1:0",
		"--db-path", t.TempDir() + "/squery.db",
		"--geoip-path", t.TempDir() + "/missing.mmdb",
		"--geoip-url", "http://127.0.0.1:1/none.mmdb",
	})
	if !assert.NoError(t, err) {
		return
	}

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		serve(ctx, stop, cfg)
	}()

	time.Sleep(200 * time.Millisecond)
	stop()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
