// Package elevenlabs implements the synth.Dialer and synth.Transport
// interfaces over the ElevenLabs stream-input WebSocket API.
//
// Authentication happens at connection establishment via the xi-api-key
// header, so the session layer never touches the credential. The remote
// service enforces its own inactivity timeout (requested as 20s in the dial
// URL); this package adds no timeout of its own. Callers who need one wrap
// their contexts.
package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coder/websocket"

	"github.com/wispkit/wisp/pkg/synth"
)

const (
	defaultEndpoint = "api.elevenlabs.io"
	voicesPath      = "/v1/voices"

	// inactivityTimeoutSec is the idle window requested from the service.
	// Disconnection on idle is the remote end's behavior, not a local guarantee.
	inactivityTimeoutSec = 20
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithEndpoint overrides the API host (e.g., for a regional or test endpoint).
func WithEndpoint(host string) Option {
	return func(c *Client) { c.endpoint = host }
}

// WithHTTPClient overrides the HTTP client used for non-streaming calls such
// as ListVoices.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// Client dials ElevenLabs stream-input connections and serves the voice
// catalogue. Safe for concurrent use; each Dial yields an independent
// transport.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// Compile-time assertion that Client satisfies synth.Dialer.
var _ synth.Dialer = (*Client)(nil)

// New creates a Client. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	c := &Client{
		apiKey:     apiKey,
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Dial opens a stream-input WebSocket for the configured voice and returns it
// as a synth.Transport. The connection is open once the WebSocket handshake
// completes.
func (c *Client) Dial(ctx context.Context, cfg synth.Config) (synth.Transport, error) {
	if cfg.VoiceID == "" {
		return nil, errors.New("elevenlabs: cfg.VoiceID must not be empty")
	}

	wsURL := streamInputURL(c.endpoint, cfg)
	header := http.Header{}
	header.Set("xi-api-key", c.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: header,
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: dial: %w", err)
	}
	// Audio payloads are base64 inside JSON; bump past the library default.
	conn.SetReadLimit(1 << 22)
	return &wsTransport{conn: conn}, nil
}

// streamInputURL builds the stream-input WebSocket URL for cfg.
func streamInputURL(endpoint string, cfg synth.Config) string {
	q := url.Values{}
	q.Set("model_id", cfg.ModelID)
	q.Set("output_format", cfg.OutputFormat)
	q.Set("auto_mode", "true")
	q.Set("inactivity_timeout", fmt.Sprint(inactivityTimeoutSec))

	u := url.URL{
		Scheme:   "wss",
		Host:     endpoint,
		Path:     "/v1/text-to-speech/" + cfg.VoiceID + "/stream-input",
		RawQuery: q.Encode(),
	}
	return u.String()
}

// wsTransport adapts a coder/websocket connection to synth.Transport.
type wsTransport struct {
	conn *websocket.Conn
}

// Send marshals and transmits one protocol message as a text frame.
func (t *wsTransport) Send(ctx context.Context, msg synth.OutboundMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("elevenlabs: marshal: %w", err)
	}
	if err := t.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("elevenlabs: write: %w", err)
	}
	return nil
}

// Receive blocks for the next inbound frame. Malformed JSON is reported as a
// *synth.ProtocolError so the session skips the message instead of dying.
func (t *wsTransport) Receive(ctx context.Context) (synth.InboundMessage, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		return synth.InboundMessage{}, fmt.Errorf("elevenlabs: read: %w", err)
	}
	var msg synth.InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return synth.InboundMessage{}, &synth.ProtocolError{Err: fmt.Errorf("unmarshal inbound: %w", err)}
	}
	return msg, nil
}

// Close closes the WebSocket with a normal-closure status. Safe to call more
// than once; subsequent closes return the library's already-closed error,
// which callers ignore.
func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "done")
}

// ---- Voice catalogue ----

// Voice is one entry of the provider's voice catalogue.
type Voice struct {
	ID       string
	Name     string
	Category string
	Labels   map[string]string
}

// voicesResponse is the top-level response from GET /v1/voices.
type voicesResponse struct {
	Voices []struct {
		VoiceID  string            `json:"voice_id"`
		Name     string            `json:"name"`
		Category string            `json:"category"`
		Labels   map[string]string `json:"labels"`
	} `json:"voices"`
}

// ListVoices returns all voices available for the configured API key.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	u := url.URL{Scheme: "https", Host: c.endpoint, Path: voicesPath}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices HTTP: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: list voices: unexpected status %d", resp.StatusCode)
	}

	var vr voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("elevenlabs: list voices decode: %w", err)
	}
	return parseVoices(vr), nil
}

// parseVoices converts the wire response into the public Voice type.
func parseVoices(vr voicesResponse) []Voice {
	voices := make([]Voice, 0, len(vr.Voices))
	for _, v := range vr.Voices {
		voices = append(voices, Voice{
			ID:       v.VoiceID,
			Name:     v.Name,
			Category: v.Category,
			Labels:   v.Labels,
		})
	}
	return voices
}
