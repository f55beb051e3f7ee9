package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reload-gateway/infra/capability"
	"reload-gateway/internal/core/domain/entity"
	"reload-gateway/internal/core/domain/ports"
)

const resultGrace = 5 * time.Second

// Bridge talks to a device agent running next to the SIMs. The agent owns
// the radio; the bridge only relays menu input and reads back the result.
type Bridge struct {
	baseURL string
	client  *http.Client
}

func NewBridge(baseURL string, client *http.Client) *Bridge {
	if client == nil {
		client = &http.Client{}
	}
	return &Bridge{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type openRequest struct {
	Slot      int    `json:"slot"`
	Network   string `json:"network"`
	ShortCode string `json:"short_code"`
}

type openResponse struct {
	ID string `json:"id"`
}

type inputRequest struct {
	Text string `json:"text"`
}

type resultResponse struct {
	Text string `json:"text"`
}

type simResponse struct {
	Slot        int    `json:"slot"`
	Carrier     string `json:"carrier"`
	DisplayName string `json:"display_name"`
	Ready       bool   `json:"ready"`
}

func (b *Bridge) OpenChannel(ctx context.Context, handle ports.ChannelHandle, shortCode string) (ports.ChannelSession, error) {
	var out openResponse
	status, err := b.do(ctx, http.MethodPost, "/sessions", openRequest{
		Slot:      handle.Slot,
		Network:   string(handle.Network),
		ShortCode: shortCode,
	}, &out)
	if err != nil {
		return ports.ChannelSession{}, err
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict:
		return ports.ChannelSession{}, fmt.Errorf("%w: %s", ports.ErrChannelBusy, handle)
	case http.StatusServiceUnavailable:
		return ports.ChannelSession{}, fmt.Errorf("%w: %s", ports.ErrChannelUnavailable, handle)
	default:
		return ports.ChannelSession{}, fmt.Errorf("open session on %s: unexpected status %d", handle, status)
	}
	if out.ID == "" {
		return ports.ChannelSession{}, fmt.Errorf("open session on %s: agent returned no id", handle)
	}
	return ports.ChannelSession{ID: out.ID, Handle: handle, OpenedAt: time.Now().UTC()}, nil
}

func (b *Bridge) SendStep(ctx context.Context, session ports.ChannelSession, text string) error {
	status, err := b.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(session.ID)+"/input", inputRequest{Text: text}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent && status != http.StatusAccepted {
		return fmt.Errorf("send input to session %s: unexpected status %d", session.ID, status)
	}
	return nil
}

// AwaitTerminalText long-polls the agent. A 204 means the agent saw no
// final message within the timeout.
func (b *Bridge) AwaitTerminalText(ctx context.Context, session ports.ChannelSession, timeout time.Duration) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout+resultGrace)
	defer cancel()

	path := fmt.Sprintf("/sessions/%s/result?timeout_ms=%d", url.PathEscape(session.ID), timeout.Milliseconds())
	var out resultResponse
	status, err := b.do(reqCtx, http.MethodGet, path, nil, &out)
	if err != nil {
		return "", err
	}

	switch status {
	case http.StatusOK:
		return out.Text, nil
	case http.StatusNoContent:
		return "", ports.ErrNoTerminalText
	default:
		return "", fmt.Errorf("read result of session %s: unexpected status %d", session.ID, status)
	}
}

func (b *Bridge) CloseChannel(ctx context.Context, session ports.ChannelSession) error {
	status, err := b.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(session.ID), nil, nil)
	if err != nil {
		return err
	}
	if status >= 300 && status != http.StatusNotFound {
		return fmt.Errorf("close session %s: unexpected status %d", session.ID, status)
	}
	return nil
}

// Channels lists the SIMs the agent reports, so the bridge can also serve
// as the capability provider.
func (b *Bridge) Channels(ctx context.Context) ([]ports.ChannelHandle, error) {
	var sims []simResponse
	status, err := b.do(ctx, http.MethodGet, "/sims", nil, &sims)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list sims: unexpected status %d", status)
	}

	out := make([]ports.ChannelHandle, 0, len(sims))
	for _, sim := range sims {
		network := capability.NetworkForCarrier(sim.Carrier)
		if network == entity.NetworkUnknown {
			network = capability.NetworkForCarrier(sim.DisplayName)
		}
		out = append(out, ports.ChannelHandle{
			Network:   network,
			Slot:      sim.Slot,
			Label:     sim.Carrier,
			Available: sim.Ready && network != entity.NetworkUnknown,
		})
	}
	return out, nil
}

func (b *Bridge) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && (resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated) {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

// String is used in logs.
func (b *Bridge) String() string {
	return "bridge(" + b.baseURL + ")"
}
