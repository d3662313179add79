// Command healthcheck probes the local server's liveness endpoint.
// It exits 0 when /livez answers 200 and 1 otherwise, for container HEALTHCHECK use.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/torneiomaker/messenger-bot/internal/config"
)

func main() {
	port := os.Getenv(config.EnvPort)
	if port == "" {
		port = config.DefaultPort
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://localhost:%s/livez", port)

	resp, err := client.Get(url)
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}

	os.Exit(0)
}
