// Package mockserver runs a scripted compute server on a loopback
// socket. Tests feed it the exchange they expect up front, point a
// client at it, and afterwards check that the script played out.
package mockserver

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/mtzgroup/tcpb-client/internal/protocol"
	"github.com/mtzgroup/tcpb-client/internal/protocol/frame"
)

// Step is one scripted exchange. The server reads one envelope,
// checks its kind against Want, and answers with Reply. A Step with
// no Reply consumes the client message silently. A Step with
// SkipRecv set sends Reply without reading anything first, covering
// the unsolicited final output message. WantEmpty additionally
// requires the received envelope to declare a zero-length payload.
type Step struct {
	Want      protocol.MessageKind
	Reply     protocol.Message
	RawReply  *frame.Envelope
	SkipRecv  bool
	WantEmpty bool
}

// Server accepts exactly one client connection and walks the script.
type Server struct {
	t  testing.TB
	ln net.Listener

	mu       sync.Mutex
	script   []Step
	played   int
	failures []string
	done     chan struct{}
}

func Start(t testing.TB, script []Step) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("mockserver listen: %v", err)
	}
	s := &Server{
		t:      t,
		ln:     ln,
		script: script,
		done:   make(chan struct{}),
	}
	t.Cleanup(s.Close)
	go s.serve()
	return s
}

// HostPort reports where the client should dial.
func (s *Server) HostPort() (string, int) {
	_, portStr, err := net.SplitHostPort(s.ln.Addr().String())
	if err != nil {
		s.t.Fatalf("mockserver addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		s.t.Fatalf("mockserver port: %v", err)
	}
	return "127.0.0.1", port
}

func (s *Server) Close() {
	s.ln.Close()
	<-s.done
}

// AssertDone fails the test if the script did not fully play or any
// step saw something it did not expect.
func (s *Server) AssertDone() {
	s.t.Helper()
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.failures {
		s.t.Errorf("mockserver: %s", f)
	}
	if s.played != len(s.script) {
		s.t.Errorf("mockserver: played %d of %d scripted steps", s.played, len(s.script))
	}
}

// Played reports how many script steps completed so far.
func (s *Server) Played() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

func (s *Server) serve() {
	defer close(s.done)
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	limits := frame.DefaultLimits()
	for _, step := range s.script {
		if !step.SkipRecv {
			env, err := frame.ReadEnvelope(conn, limits)
			if err != nil {
				s.fail(fmt.Sprintf("read envelope: %v", err))
				return
			}
			if got := protocol.MessageKind(env.Kind); got != step.Want {
				s.fail(fmt.Sprintf("got kind %s, want %s", got, step.Want))
				return
			}
			if step.WantEmpty && len(env.Payload) != 0 {
				s.fail(fmt.Sprintf("kind %s payload length = %d, want 0", step.Want, len(env.Payload)))
				return
			}
		}
		if env, ok := s.replyEnvelope(step); ok {
			if err := frame.WriteEnvelope(conn, env, limits); err != nil {
				s.fail(fmt.Sprintf("write envelope: %v", err))
				return
			}
		}
		s.mu.Lock()
		s.played++
		s.mu.Unlock()
	}
}

func (s *Server) replyEnvelope(step Step) (frame.Envelope, bool) {
	if step.RawReply != nil {
		return *step.RawReply, true
	}
	if step.Reply == nil {
		return frame.Envelope{}, false
	}
	payload, err := step.Reply.MarshalPayload()
	if err != nil {
		s.fail(fmt.Sprintf("marshal reply: %v", err))
		return frame.Envelope{}, false
	}
	return frame.Envelope{Kind: uint32(step.Reply.Kind()), Payload: payload}, true
}

func (s *Server) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, msg)
}
