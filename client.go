package internalclient

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bringauto/internal-client-go/internal/protocol"
	"github.com/bringauto/internal-client-go/internal/session"
)

// Config describes one device identity and its gateway endpoint.
type Config struct {
	ModuleID       uint32
	Hostname       string
	Port           string
	DeviceName     string
	DeviceType     uint32
	DeviceRole     string
	DevicePriority uint32

	// Session overrides session reliability defaults when non-zero.
	Session session.Config
	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// SessionDefaults returns the default reliability settings used when
// Config.Session is left zero.
func SessionDefaults() session.Config { return session.DefaultConfig() }

// Client is the public facade over one device session. Not safe for
// concurrent use.
type Client struct {
	sess *session.Session
}

// New validates cfg and builds an unconnected client.
func New(cfg Config) (*Client, error) {
	port, err := parsePort(cfg.Port)
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(strings.TrimSpace(cfg.Hostname), strconv.Itoa(port))

	device := protocol.Device{
		ModuleID: cfg.ModuleID,
		Name:     cfg.DeviceName,
		Type:     cfg.DeviceType,
		Role:     cfg.DeviceRole,
		Priority: cfg.DevicePriority,
	}

	sessCfg := cfg.Session
	defaults := session.DefaultConfig()
	if sessCfg.ConnectTimeout == 0 {
		sessCfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if sessCfg.HandshakeTimeout == 0 {
		sessCfg.HandshakeTimeout = defaults.HandshakeTimeout
	}
	if sessCfg.Limits.MaxPayloadBytes == 0 {
		sessCfg.Limits = defaults.Limits
	}
	if sessCfg.Backoff.InitialDelay == 0 {
		sessCfg.Backoff = defaults.Backoff
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	sess, err := session.New(device, addr, sessCfg, logger)
	if err != nil {
		return nil, err
	}
	return &Client{sess: sess}, nil
}

// Connect registers the device with the gateway. On failure the client is
// still usable: no session was established and Connect may be called again.
func (c *Client) Connect() error {
	return c.sess.Connect()
}

// SendStatus sends one opaque status payload and returns the command the
// gateway pairs with it. Any returned error besides the precondition errors
// (ErrClientDestroyed, ErrNotConnected, ErrNegativeTimeout) means this client
// is destroyed; classify it with IsTransportError, IsRejectError, or
// IsProtocolViolation to decide what to do next.
func (c *Client) SendStatus(data []byte, timeout time.Duration) ([]byte, error) {
	return c.sess.Exchange(data, timeout)
}

// GetCommand returns the command received by the most recent successful
// SendStatus call.
func (c *Client) GetCommand() ([]byte, error) {
	return c.sess.LastCommand()
}

// Connected reports whether the session is established.
func (c *Client) Connected() bool {
	return c.sess.State() == session.StateConnected
}

// Destroy releases the connection. Safe to call multiple times.
func (c *Client) Destroy() error {
	return c.sess.Close()
}

func parsePort(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("internalclient: port required")
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("internalclient: invalid port %q: %w", raw, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("internalclient: port %d out of range", port)
	}
	return port, nil
}
