package tcpb

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mtzgroup/tcpb-client/internal/protocol"
	"github.com/mtzgroup/tcpb-client/internal/protocol/frame"
)

// Options configures a Conn. Timeouts apply per individual send or
// receive call, not per logical operation; zero disables the deadline.
type Options struct {
	Host string
	Port int

	SendTimeout time.Duration
	RecvTimeout time.Duration

	// MaxPayloadBytes bounds any declared envelope payload length
	// before allocation. Zero selects the frame default.
	MaxPayloadBytes uint32

	// Logger is an optional collaborator; correctness never depends
	// on it. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

func DefaultOptions(host string, port int) Options {
	return Options{
		Host:        host,
		Port:        port,
		SendTimeout: 15 * time.Second,
		RecvTimeout: 15 * time.Second,
	}
}

// Conn owns the transport handle to one server: at most one live socket
// per Conn. It is created disconnected; Dial acquires the socket and
// Close releases it unconditionally.
type Conn struct {
	host   string
	port   int
	opts   Options
	limits frame.Limits
	log    zerolog.Logger

	nc   net.Conn
	open bool
}

// NewConn validates the address options and returns a disconnected
// Conn. Ports at or below 1023 are reserved and rejected.
func NewConn(opts Options) (*Conn, error) {
	if opts.Host == "" {
		return nil, &ConfigurationError{Field: "host", Err: errors.New("empty hostname")}
	}
	if opts.Port <= 1023 || opts.Port > 65535 {
		return nil, &ConfigurationError{Field: "port", Err: fmt.Errorf("port %d outside (1023, 65535]", opts.Port)}
	}
	limits := frame.DefaultLimits()
	if opts.MaxPayloadBytes > 0 {
		limits.MaxPayloadBytes = opts.MaxPayloadBytes
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Conn{
		host:   opts.Host,
		port:   opts.Port,
		opts:   opts,
		limits: limits,
		log:    log,
	}, nil
}

func (c *Conn) Addr() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

func (c *Conn) Open() bool { return c.open }

// Dial resolves the host and connects. There is no retry: a resolution
// or connect failure surfaces immediately as a ConnectionError.
func (c *Conn) Dial() error {
	if c.open {
		return ErrAlreadyConnected
	}
	d := net.Dialer{Timeout: c.opts.SendTimeout}
	nc, err := d.Dial("tcp", c.Addr())
	if err != nil {
		return &ConnectionError{Op: "dial", Err: err}
	}
	c.nc = nc
	c.open = true
	c.log.Debug().Str("addr", c.Addr()).Msg("connected")
	return nil
}

// Close is a best-effort shutdown-then-close. It never fails, is safe
// to call repeatedly and on a never-connected Conn, and always leaves
// the connection closed.
func (c *Conn) Close() {
	if c.nc != nil {
		if tc, ok := c.nc.(*net.TCPConn); ok {
			_ = tc.CloseWrite()
		}
		_ = c.nc.Close()
		c.nc = nil
		c.log.Debug().Str("addr", c.Addr()).Msg("disconnected")
	}
	c.open = false
}

// Send frames and writes one message. A retryable I/O failure
// (interrupted or would-block/timeout) is retried exactly once; any
// second failure tears the connection down and surfaces a
// ConnectionError.
func (c *Conn) Send(m protocol.Message) error {
	if !c.open {
		return ErrNotConnected
	}
	payload, err := m.MarshalPayload()
	if err != nil {
		return &ConfigurationError{Field: m.Kind().String(), Err: err}
	}
	env := frame.Envelope{Kind: uint32(m.Kind()), Payload: payload}

	err = c.writeEnvelope(env)
	if err != nil && retryable(err) {
		c.log.Warn().Err(err).Str("kind", m.Kind().String()).Msg("send interrupted, retrying once")
		err = c.writeEnvelope(env)
	}
	if err != nil {
		c.Close()
		return &ConnectionError{Op: "send " + m.Kind().String(), Err: err}
	}
	c.log.Debug().Str("kind", m.Kind().String()).Int("payload_bytes", len(payload)).Msg("sent")
	return nil
}

// Receive reads one envelope. Retry policy matches Send; a short read,
// stream closure, or over-limit declared length also tears the
// connection down. Over-limit lengths surface as a ProtocolError since
// the header itself is malformed.
func (c *Conn) Receive() (protocol.MessageKind, []byte, error) {
	if !c.open {
		return 0, nil, ErrNotConnected
	}

	env, err := c.readEnvelope()
	if err != nil && retryable(err) {
		c.log.Warn().Err(err).Msg("receive interrupted, retrying once")
		env, err = c.readEnvelope()
	}
	if err != nil {
		c.Close()
		if errors.Is(err, frame.ErrPayloadTooLarge) {
			return 0, nil, &ProtocolError{Err: err}
		}
		return 0, nil, &ConnectionError{Op: "receive", Err: err}
	}

	kind := protocol.MessageKind(env.Kind)
	if !kind.Valid() {
		c.Close()
		return 0, nil, &ProtocolError{Got: kind, Err: protocol.ErrUnknownKind}
	}
	c.log.Debug().Str("kind", kind.String()).Int("payload_bytes", len(env.Payload)).Msg("received")
	return kind, env.Payload, nil
}

func (c *Conn) writeEnvelope(env frame.Envelope) error {
	if err := c.armDeadline(c.nc.SetWriteDeadline, c.opts.SendTimeout); err != nil {
		return err
	}
	return frame.WriteEnvelope(c.nc, env, c.limits)
}

func (c *Conn) readEnvelope() (frame.Envelope, error) {
	if err := c.armDeadline(c.nc.SetReadDeadline, c.opts.RecvTimeout); err != nil {
		return frame.Envelope{}, err
	}
	return frame.ReadEnvelope(c.nc, c.limits)
}

func (c *Conn) armDeadline(set func(time.Time) error, d time.Duration) error {
	if d <= 0 {
		return set(time.Time{})
	}
	return set(time.Now().Add(d))
}

// retryable reports whether err is in the interrupted/would-block class
// that warrants the single retry.
func retryable(err error) bool {
	if errors.Is(err, syscall.EINTR) || errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
