// Command healthcheck checks a running mikromon over loopback and exits
// non-zero unless it reports healthy with at least one endpoint registered.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

const checkTimeout = 2 * time.Second

// healthBody is the subset of the /api/v1/health reply the check inspects.
type healthBody struct {
	Status    string `json:"status"`
	Endpoints int    `json:"endpoints"`
}

func main() {
	if err := checkHealth(normalizeAddr(os.Getenv("MIKROMON_LISTEN_ADDR"))); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

func checkHealth(addr string) error {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/api/v1/health", nil)
	if err != nil {
		return err
	}

	resp, err := (&http.Client{Timeout: checkTimeout}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return evaluate(resp.Body)
}

// evaluate decodes a health reply. The server always seeds an endpoint on
// first start, so an empty registry means startup went wrong.
func evaluate(body io.Reader) error {
	var h healthBody
	if err := json.NewDecoder(body).Decode(&h); err != nil {
		return fmt.Errorf("decode health reply: %w", err)
	}
	if h.Status != "ok" {
		return fmt.Errorf("status %q", h.Status)
	}
	if h.Endpoints < 1 {
		return errors.New("no endpoints registered")
	}
	return nil
}

// normalizeAddr maps an empty or bind-all listen address to loopback, since
// the check runs on the same host as the server.
func normalizeAddr(raw string) string {
	const fallback = "127.0.0.1:8080"

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return fallback
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
