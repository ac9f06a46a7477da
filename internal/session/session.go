package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bringauto/internal-client-go/internal/observability"
	"github.com/bringauto/internal-client-go/internal/protocol"
	"github.com/bringauto/internal-client-go/internal/transport"
)

// State is the session lifecycle position. StateDestroyed is terminal.
type State uint8

const (
	StateUninitialized State = iota
	StateConnected
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnected:
		return "connected"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

var (
	// ErrDestroyed: the session reached its terminal state; the owner must
	// build a fresh client to continue.
	ErrDestroyed = errors.New("session: already destroyed")
	// ErrNotConnected: Exchange was called before a successful Connect.
	ErrNotConnected = errors.New("session: not connected")
	// ErrAlreadyOpen: Connect was called on a connected session.
	ErrAlreadyOpen = errors.New("session: already connected")
	// ErrNoCommand: no exchange has completed yet.
	ErrNoCommand = errors.New("session: no command available, send a status first")
	// ErrNegativeTimeout: the exchange timeout budget must not be negative.
	ErrNegativeTimeout = errors.New("session: negative timeout")
)

// Session drives one device's registration and status/command exchanges
// against a single gateway address. Not safe for concurrent use; the caller
// serializes operations.
type Session struct {
	device protocol.Device
	addr   string
	cfg    Config
	log    zerolog.Logger

	state       State
	conn        *transport.Conn
	lastCommand []byte
	nextMsgID   uint64
}

// New builds an unconnected session for one device identity.
func New(device protocol.Device, addr string, cfg Config, logger zerolog.Logger) (*Session, error) {
	if err := device.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("session: gateway address required")
	}
	if cfg.Limits.MaxPayloadBytes == 0 {
		cfg.Limits = DefaultConfig().Limits
	}
	return &Session{
		device: device,
		addr:   addr,
		cfg:    cfg,
		log:    logger.With().Str("device", device.Name).Str("gateway", addr).Logger(),
	}, nil
}

func (s *Session) State() State { return s.state }

// Connect runs the registration handshake. On failure the session stays
// uninitialized and retains no stream handle; the caller decides whether to
// call Connect again.
func (s *Session) Connect() error {
	switch s.state {
	case StateDestroyed:
		return ErrDestroyed
	case StateConnected:
		return ErrAlreadyOpen
	}

	conn, err := s.handshake()
	if err != nil {
		return err
	}
	s.conn = conn
	s.state = StateConnected
	s.log.Info().Msg("registered with gateway")
	return nil
}

// Exchange sends one status payload and returns the command the gateway
// answers with. A transport failure triggers exactly one reconnect-and-resend
// before the session is destroyed; protocol violations destroy it
// immediately.
func (s *Session) Exchange(status []byte, timeout time.Duration) ([]byte, error) {
	switch s.state {
	case StateDestroyed:
		return nil, ErrDestroyed
	case StateUninitialized:
		return nil, ErrNotConnected
	}
	if timeout < 0 {
		return nil, ErrNegativeTimeout
	}

	payload, err := protocol.EncodeStatus(s.msgID(), s.device, status)
	if err != nil {
		return nil, err
	}

	command, err := s.roundTrip(payload, timeout)
	if err == nil {
		observability.RecordExchange(s.device.Name, observability.OutcomeOK)
		s.lastCommand = command
		return command, nil
	}

	if !transport.IsTransport(err) {
		observability.RecordExchange(s.device.Name, observability.OutcomeMalformed)
		s.destroy()
		return nil, violation(err)
	}

	s.log.Warn().Err(err).Msg("status exchange failed, reconnecting")
	observability.RecordExchange(s.device.Name, observability.OutcomeTransport)
	_ = s.conn.Close()
	s.conn = nil

	conn, herr := s.handshake()
	if herr != nil {
		s.recordReconnect(herr)
		s.destroy()
		return nil, herr
	}
	s.conn = conn

	command, err = s.roundTrip(payload, timeout)
	if err != nil {
		s.recordReconnect(err)
		s.destroy()
		if !transport.IsTransport(err) {
			return nil, violation(err)
		}
		return nil, err
	}
	observability.RecordReconnect(s.device.Name, observability.OutcomeOK)
	s.log.Info().Msg("status resent after reconnect")
	s.lastCommand = command
	return command, nil
}

// LastCommand returns the command received by the most recent successful
// exchange.
func (s *Session) LastCommand() ([]byte, error) {
	if s.state == StateDestroyed {
		return nil, ErrDestroyed
	}
	if s.lastCommand == nil {
		return nil, ErrNoCommand
	}
	out := make([]byte, len(s.lastCommand))
	copy(out, s.lastCommand)
	return out, nil
}

// Close releases the stream handle and moves the session to its terminal
// state. Idempotent; close failures are swallowed.
func (s *Session) Close() error {
	if s.state == StateDestroyed {
		return nil
	}
	s.destroy()
	return nil
}

// handshake opens a stream and registers the device. Any failure closes the
// partially opened stream and surfaces the classified error.
func (s *Session) handshake() (*transport.Conn, error) {
	s.log.Info().Msg("connecting to gateway")
	conn, err := transport.Dial(s.addr, s.cfg.ConnectTimeout, s.cfg.Limits)
	if err != nil {
		observability.RecordHandshake(s.device.Name, observability.OutcomeTransport)
		return nil, err
	}

	req, err := protocol.EncodeRegister(s.msgID(), s.device)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := conn.Send(req, s.cfg.HandshakeTimeout); err != nil {
		_ = conn.Close()
		observability.RecordHandshake(s.device.Name, observability.OutcomeTransport)
		return nil, err
	}

	raw, err := conn.Receive(s.cfg.HandshakeTimeout)
	if err != nil {
		_ = conn.Close()
		if transport.IsTransport(err) {
			observability.RecordHandshake(s.device.Name, observability.OutcomeTransport)
			return nil, err
		}
		observability.RecordHandshake(s.device.Name, observability.OutcomeMalformed)
		return nil, violation(err)
	}

	ack, err := protocol.DecodeRegisterAck(raw)
	if err != nil {
		_ = conn.Close()
		observability.RecordHandshake(s.device.Name, observability.OutcomeMalformed)
		return nil, violation(err)
	}
	if err := ack.Err(); err != nil {
		_ = conn.Close()
		if protocol.IsReject(err) {
			s.log.Error().Err(err).Msg("gateway rejected registration")
			observability.RecordHandshake(s.device.Name, observability.OutcomeRejected)
			return nil, err
		}
		observability.RecordHandshake(s.device.Name, observability.OutcomeMalformed)
		return nil, violation(err)
	}

	observability.RecordHandshake(s.device.Name, observability.OutcomeOK)
	return conn, nil
}

func (s *Session) roundTrip(payload []byte, timeout time.Duration) ([]byte, error) {
	if err := s.conn.Send(payload, timeout); err != nil {
		return nil, err
	}
	raw, err := s.conn.Receive(timeout)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeCommand(raw)
}

func (s *Session) destroy() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.state != StateDestroyed {
		s.log.Info().Msg("session destroyed")
	}
	s.state = StateDestroyed
}

func (s *Session) recordReconnect(err error) {
	switch {
	case protocol.IsReject(err):
		observability.RecordReconnect(s.device.Name, observability.OutcomeRejected)
	case transport.IsTransport(err):
		observability.RecordReconnect(s.device.Name, observability.OutcomeTransport)
	default:
		observability.RecordReconnect(s.device.Name, observability.OutcomeMalformed)
	}
}

func (s *Session) msgID() uint64 {
	s.nextMsgID++
	return s.nextMsgID
}

// violation folds frame and decode failures into the protocol-violation
// family so callers can classify with a single errors.Is check.
func violation(err error) error {
	if errors.Is(err, protocol.ErrMalformed) {
		return err
	}
	return fmt.Errorf("%w: %w", protocol.ErrMalformed, err)
}
