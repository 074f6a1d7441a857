package tcpb

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mtzgroup/tcpb-client/internal/protocol"
)

// state is the submit/poll/retrieve progression. Submission itself is
// transient inside Submit: it either returns to idle (declined) or
// lands in polling (accepted).
type state int

const (
	stateIdle state = iota
	statePolling
	stateCompleted
)

// JobHandle correlates a running job for caller bookkeeping. The
// protocol itself is connection-scoped, so the handle is informational.
type JobHandle struct {
	ServerJobID   int32
	JobDir        string
	JobScratchDir string
}

// Client drives the job protocol over one Conn: submit, poll, result
// retrieval, and warm-start continuity between successive jobs. It
// owns the in-flight-job slot; at most one job may be outstanding.
type Client struct {
	conn *Conn
	log  zerolog.Logger

	st     state
	handle JobHandle
	req    *JobRequest
}

func NewClient(conn *Conn) *Client {
	return &Client{conn: conn, log: conn.log}
}

// Handle reports the server-assigned handle of the in-flight or
// just-completed job.
func (c *Client) Handle() (JobHandle, bool) {
	return c.handle, c.st != stateIdle
}

// IsAvailable asks the server whether it could accept a job right now.
// It does not reserve the server; availability can change immediately
// after. Only legal while no job is in flight.
func (c *Client) IsAvailable() (bool, error) {
	if c.st != stateIdle {
		return false, ErrJobInFlight
	}
	status, err := c.exchangeStatus(protocol.Status{})
	if err != nil {
		return false, err
	}
	return !status.Busy, nil
}

// Submit sends a built job and reads the server's verdict. A busy
// server declining the job is a normal outcome, reported as
// accepted=false with no error; the caller retries later. On
// acceptance the job handle is captured and the client starts polling.
func (c *Client) Submit(req *JobRequest) (bool, error) {
	if c.st != stateIdle {
		return false, ErrJobInFlight
	}
	if req == nil {
		return false, &ConfigurationError{Field: "request", Err: errors.New("nil job request")}
	}

	status, err := c.exchangeStatus(req.input)
	if err != nil {
		return false, err
	}

	switch status.Phase {
	case protocol.PhaseAccepted:
		c.handle = JobHandle{
			ServerJobID:   status.ServerJobID,
			JobDir:        status.JobDir,
			JobScratchDir: status.JobScratchDir,
		}
		c.req = req
		c.st = statePolling
		c.log.Info().
			Int32("server_job_id", status.ServerJobID).
			Str("job_dir", status.JobDir).
			Msg("job accepted")
		return true, nil
	case protocol.PhaseNone:
		// Server busy with another client's job; not an error.
		c.log.Info().Msg("job declined, server busy")
		return false, nil
	default:
		c.conn.Close()
		c.st = stateIdle
		return false, &ProtocolError{
			Want: protocol.KindStatus,
			Got:  protocol.KindStatus,
			Err:  unexpectedPhase(status.Phase),
		}
	}
}

// Poll checks on the in-flight job. It returns false while the server
// is still working; "still running" is the expected steady state, not
// an error. Once true has been returned the result must be fetched
// with Result before another job can be submitted.
func (c *Client) Poll() (bool, error) {
	switch c.st {
	case stateIdle:
		return false, ErrNoJobInFlight
	case stateCompleted:
		return true, nil
	}

	status, err := c.exchangeStatus(protocol.Status{})
	if err != nil {
		c.st = stateIdle
		c.req = nil
		return false, err
	}

	switch status.Phase {
	case protocol.PhaseWorking:
		return false, nil
	case protocol.PhaseCompleted:
		c.st = stateCompleted
		return true, nil
	default:
		c.conn.Close()
		c.st = stateIdle
		c.req = nil
		return false, &ProtocolError{
			Want: protocol.KindStatus,
			Got:  protocol.KindStatus,
			Err:  unexpectedPhase(status.Phase),
		}
	}
}

// Result performs the single post-completion receive: exactly one
// JOB_OUTPUT envelope with no intervening send. Any other message kind
// here is a fatal sequencing violation. On success the result's
// orbital files are cached into the originating builder as the next
// warm-start guess, unless the molecule changed in the meantime.
func (c *Client) Result() (*Result, error) {
	switch c.st {
	case stateIdle:
		return nil, ErrNoJobInFlight
	case statePolling:
		return nil, ErrJobNotComplete
	}

	kind, payload, err := c.conn.Receive()
	if err != nil {
		c.reset()
		return nil, err
	}
	if kind != protocol.KindJobOutput {
		c.conn.Close()
		c.reset()
		return nil, &ProtocolError{Want: protocol.KindJobOutput, Got: kind}
	}
	out, err := protocol.DecodeJobOutput(payload)
	if err != nil {
		c.conn.Close()
		c.reset()
		return nil, &ProtocolError{Want: protocol.KindJobOutput, Got: kind, Err: err}
	}

	if c.req != nil && c.req.builder != nil {
		c.req.builder.adoptGuess(out.Orb1AFile, out.Orb1BFile, c.req.epoch)
	}
	c.reset()
	c.log.Info().Int32("server_job_id", out.ServerJobID).Msg("job output received")
	return newResult(out), nil
}

func (c *Client) reset() {
	c.st = stateIdle
	c.req = nil
	c.handle = JobHandle{}
}

// Compute is the synchronous convenience wrapper: submit (retrying
// while the server is busy), poll until completion, then fetch the
// output. The interval paces both loops; ctx cancels between network
// calls. It adds no protocol behavior beyond the retry loops.
func (c *Client) Compute(ctx context.Context, req *JobRequest, interval time.Duration) (*Result, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	for {
		accepted, err := c.Submit(req)
		if err != nil {
			return nil, err
		}
		if accepted {
			break
		}
		if err := sleepCtx(ctx, interval); err != nil {
			return nil, err
		}
	}
	for {
		done, err := c.Poll()
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		if err := sleepCtx(ctx, interval); err != nil {
			return nil, err
		}
	}
	return c.Result()
}

// exchangeStatus sends m and reads the STATUS reply every protocol
// step expects.
func (c *Client) exchangeStatus(m protocol.Message) (protocol.Status, error) {
	if err := c.conn.Send(m); err != nil {
		return protocol.Status{}, err
	}
	kind, payload, err := c.conn.Receive()
	if err != nil {
		return protocol.Status{}, err
	}
	if kind != protocol.KindStatus {
		c.conn.Close()
		return protocol.Status{}, &ProtocolError{Want: protocol.KindStatus, Got: kind}
	}
	status, err := protocol.DecodeStatus(payload)
	if err != nil {
		c.conn.Close()
		return protocol.Status{}, &ProtocolError{Want: protocol.KindStatus, Got: kind, Err: err}
	}
	return status, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type phaseError struct {
	phase protocol.JobPhase
}

func (e *phaseError) Error() string {
	return "unexpected job phase " + e.phase.String()
}

func unexpectedPhase(p protocol.JobPhase) error {
	return &phaseError{phase: p}
}
