package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"

	"github.com/cretz/bine/tor"
)

type (
	// Tor is the anonymous endpoint: a v3 onion service listener for inbound
	// envelopes and a dialer-backed HTTP client for outbound ones. Without it
	// the process cannot message at all, so Start failures are surfaced to
	// main and treated as fatal there.
	Tor struct {
		proc    *tor.Tor
		onion   *tor.OnionService
		address string
	}

	// TorConfig selects the tor data directory, the published remote port
	// and whether tor's own logging goes to stderr.
	TorConfig struct {
		DataDir string
		Port    int
		Verbose bool
	}
)

// StartTor bootstraps a tor process and publishes the onion service. It
// blocks until the network is usable or ctx runs out.
func StartTor(ctx context.Context, cfg TorConfig) (*Tor, error) {
	var debugWriter io.Writer = io.Discard
	if cfg.Verbose {
		debugWriter = os.Stderr
	}

	proc, err := tor.Start(ctx, &tor.StartConf{
		DataDir:     cfg.DataDir,
		DebugWriter: debugWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("tor start: %w", err)
	}

	if err := proc.EnableNetwork(ctx, true); err != nil {
		proc.Close()
		return nil, fmt.Errorf("tor network enable: %w", err)
	}

	onion, err := proc.Listen(ctx, &tor.ListenConf{
		RemotePorts: []int{cfg.Port},
		Version3:    true,
	})
	if err != nil {
		proc.Close()
		return nil, fmt.Errorf("onion service publish: %w", err)
	}

	address := fmt.Sprintf("%s.onion", onion.ID)
	if cfg.Port != 80 {
		address = fmt.Sprintf("%s:%d", address, cfg.Port)
	}

	return &Tor{
		proc:    proc,
		onion:   onion,
		address: address,
	}, nil
}

// Address is the published onion address peers send envelopes to.
func (t *Tor) Address() string {
	return t.address
}

// Listener accepts inbound connections arriving over the onion service.
func (t *Tor) Listener() net.Listener {
	return t.onion
}

// Client returns an HTTP client whose connections are dialed through tor, so
// outbound envelopes reach .onion peers.
func (t *Tor) Client(ctx context.Context) (*http.Client, error) {
	dialer, err := t.proc.Dialer(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("tor dialer: %w", err)
	}

	return &http.Client{
		Transport: &http.Transport{
			DialContext: dialer.DialContext,
		},
	}, nil
}

func (t *Tor) Close() error {
	return t.proc.Close()
}
