// Package gamesense is the outbound HTTP client for the SteelSeries
// GameSense SDK, which drives the OLED screens on GameDAC / Arctis / Apex
// devices. It consumes two-line frames and knows nothing about sensors or
// display modes.
//
// The local GameSense server publishes its address in coreProps.json;
// Discover probes the documented locations plus the common fixed ports.
package gamesense

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Frame is one two-line OLED update.
type Frame struct {
	Line1 string
	Line2 string
}

// Client talks to one GameSense server on behalf of one registered game.
type Client struct {
	base string
	game string
	http *http.Client
}

// eventName is the single screen event this monitor binds and raises.
const eventName = "SYSTEM_STATS"

// New creates a client for an already-known server address, e.g. from
// Discover or from config.
func New(baseURL, game string) *Client {
	return &Client{
		base: baseURL,
		game: game,
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

// Discover locates a running GameSense server. It reads every coreProps.json
// candidate, collects address fields, appends the commonly used fixed ports,
// and returns the first address that answers /game_metadata.
func Discover() (string, error) {
	var candidates []string
	for _, path := range corePropsCandidates() {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var props struct {
			Address            string `json:"address"`
			EncryptedAddress   string `json:"encryptedAddress"`
			GGEncryptedAddress string `json:"ggEncryptedAddress"`
		}
		if err := json.Unmarshal(raw, &props); err != nil {
			continue
		}
		for _, addr := range []string{props.Address, props.EncryptedAddress, props.GGEncryptedAddress} {
			if addr != "" {
				candidates = append(candidates, "http://"+addr)
			}
		}
	}

	candidates = append(candidates,
		"http://127.0.0.1:50647",
		"http://127.0.0.1:51765",
		"http://127.0.0.1:3001",
	)

	probe := &http.Client{Timeout: 2 * time.Second}
	for _, base := range candidates {
		resp, err := probe.Get(base + "/game_metadata")
		if err != nil {
			continue
		}
		resp.Body.Close()
		// 405 still proves a GameSense server is listening there.
		if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusMethodNotAllowed {
			return base, nil
		}
	}
	return "", fmt.Errorf("gamesense: no responding server found")
}

func corePropsCandidates() []string {
	var paths []string
	if pd := os.Getenv("PROGRAMDATA"); pd != "" {
		paths = append(paths,
			filepath.Join(pd, "SteelSeries", "SteelSeries Engine 3", "coreProps.json"),
			filepath.Join(pd, "SteelSeries", "GG", "coreProps.json"),
		)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, "AppData", "Roaming", "SteelSeries", "SteelSeries Engine 3", "coreProps.json"),
		)
	}
	return append(paths, "coreProps.json")
}

// BindScreen registers the game and its two-line screen handler. Must
// succeed once before SendFrame updates reach a device.
func (c *Client) BindScreen(ctx context.Context) error {
	line := func(key string) map[string]any {
		return map[string]any{"has-text": true, "context-frame-key": key}
	}
	payload := map[string]any{
		"game":           c.game,
		"event":          eventName,
		"min_value":      0,
		"max_value":      100,
		"icon_id":        15,
		"value_optional": true,
		"handlers": []map[string]any{{
			"device-type": "screened",
			"zone":        "one",
			"mode":        "screen",
			"datas": []map[string]any{{
				"lines": []map[string]any{line("line1"), line("line2")},
			}},
		}},
	}
	return c.postJSON(ctx, "/bind_game_event", payload)
}

// SendFrame pushes one frame to the bound screen handler. value drives the
// SDK's change detection; the caller passes a monotonically increasing
// update count.
func (c *Client) SendFrame(ctx context.Context, f Frame, value int) error {
	payload := map[string]any{
		"game":  c.game,
		"event": eventName,
		"data": map[string]any{
			"value": value,
			"frame": map[string]string{
				"line1": f.Line1,
				"line2": f.Line2,
			},
		},
	}
	return c.postJSON(ctx, "/game_event", payload)
}

// Heartbeat keeps the registration alive during idle stretches.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.postJSON(ctx, "/game_heartbeat", map[string]any{"game": c.game})
}

// Remove deregisters the game, releasing the screen back to the SDK.
func (c *Client) Remove(ctx context.Context) error {
	return c.postJSON(ctx, "/remove_game", map[string]any{"game": c.game})
}

// postJSON sends v as JSON via HTTP POST and fails on any non-2xx status.
func (c *Client) postJSON(ctx context.Context, path string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("gamesense: server returned %d for %s", resp.StatusCode, path)
	}
	return nil
}
