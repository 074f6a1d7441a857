package tcpb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/mtzgroup/tcpb-client/internal/protocol"
	"github.com/mtzgroup/tcpb-client/internal/protocol/frame"
	"github.com/mtzgroup/tcpb-client/internal/testutil/mockserver"
	"github.com/mtzgroup/tcpb-client/internal/testutil/testlog"
)

const waterEnergy = -76.3000505

func dialMock(t *testing.T, script []mockserver.Step) (*Client, *mockserver.Server) {
	t.Helper()
	testlog.Start(t)
	srv := mockserver.Start(t, script)
	host, port := srv.HostPort()
	conn, err := NewConn(DefaultOptions(host, port))
	require.NoError(t, err)
	require.NoError(t, conn.Dial())
	t.Cleanup(conn.Close)
	return NewClient(conn), srv
}

func waterRequest(t *testing.T, run protocol.RunType) *JobRequest {
	t.Helper()
	b := waterBuilder(t)
	req, err := b.Build(run, waterXYZ, protocol.UnitAngstrom)
	require.NoError(t, err)
	return req
}

func waterOutput(run protocol.RunType) protocol.JobOutput {
	out := protocol.JobOutput{
		Mol: protocol.Mol{
			Atoms:        []string{"O", "H", "H"},
			XYZ:          waterXYZ,
			Units:        protocol.UnitAngstrom,
			Multiplicity: 1,
			Closed:       true,
			Restricted:   true,
		},
		Energy:        []float64{waterEnergy},
		JobDir:        "/scratch/job_1",
		JobScratchDir: "/scratch/job_1/scr",
		ServerJobID:   1,
		Orb1AFile:     "/scratch/job_1/scr/c0",
	}
	if run == protocol.RunGradient {
		out.Gradient = []float64{
			0.002, -0.001, 0,
			-0.001, 0.003, 0,
			-0.001, -0.002, 0,
		}
	}
	return out
}

func TestIsAvailable(t *testing.T) {
	client, srv := dialMock(t, []mockserver.Step{
		{Want: protocol.KindStatus, WantEmpty: true, Reply: protocol.Status{Busy: false}},
		{Want: protocol.KindStatus, WantEmpty: true, Reply: protocol.Status{Busy: true}},
	})

	ok, err := client.IsAvailable()
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.IsAvailable()
	require.NoError(t, err)
	assert.False(t, ok)

	srv.AssertDone()
}

func TestSubmitAccepted(t *testing.T) {
	client, srv := dialMock(t, []mockserver.Step{
		{Want: protocol.KindJobInput, Reply: protocol.Status{
			Busy:          true,
			Phase:         protocol.PhaseAccepted,
			JobDir:        "/scratch/job_9",
			JobScratchDir: "/scratch/job_9/scr",
			ServerJobID:   9,
		}},
	})

	accepted, err := client.Submit(waterRequest(t, protocol.RunEnergy))
	require.NoError(t, err)
	assert.True(t, accepted)

	handle, ok := client.Handle()
	require.True(t, ok)
	assert.Equal(t, int32(9), handle.ServerJobID)
	assert.Equal(t, "/scratch/job_9", handle.JobDir)

	// A second submit while the first is in flight is a caller error
	// and generates no traffic.
	_, err = client.Submit(waterRequest(t, protocol.RunEnergy))
	assert.ErrorIs(t, err, ErrJobInFlight)

	srv.AssertDone()
}

func TestSubmitDeclinedLeavesIdle(t *testing.T) {
	client, srv := dialMock(t, []mockserver.Step{
		{Want: protocol.KindJobInput, Reply: protocol.Status{Busy: true}},
		{Want: protocol.KindJobInput, Reply: protocol.Status{
			Busy:        true,
			Phase:       protocol.PhaseAccepted,
			ServerJobID: 2,
		}},
	})

	req := waterRequest(t, protocol.RunEnergy)
	accepted, err := client.Submit(req)
	require.NoError(t, err)
	assert.False(t, accepted)

	_, ok := client.Handle()
	assert.False(t, ok)

	// Declined is not sticky; the same request resubmits cleanly.
	accepted, err = client.Submit(req)
	require.NoError(t, err)
	assert.True(t, accepted)

	srv.AssertDone()
}

func TestSubmitNilRequest(t *testing.T) {
	client, srv := dialMock(t, nil)

	_, err := client.Submit(nil)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.NotErrorIs(t, err, ErrNoJobInFlight)
	assert.Equal(t, 0, srv.Played())
}

func TestPollBeforeSubmit(t *testing.T) {
	client, srv := dialMock(t, nil)

	_, err := client.Poll()
	assert.ErrorIs(t, err, ErrNoJobInFlight)
	_, err = client.Result()
	assert.ErrorIs(t, err, ErrNoJobInFlight)
	assert.Equal(t, 0, srv.Played())
}

func TestResultBeforeComplete(t *testing.T) {
	client, srv := dialMock(t, []mockserver.Step{
		{Want: protocol.KindJobInput, Reply: protocol.Status{Phase: protocol.PhaseAccepted}},
		{Want: protocol.KindStatus, WantEmpty: true, Reply: protocol.Status{Busy: true, Phase: protocol.PhaseWorking}},
	})

	accepted, err := client.Submit(waterRequest(t, protocol.RunEnergy))
	require.NoError(t, err)
	require.True(t, accepted)

	_, err = client.Result()
	assert.ErrorIs(t, err, ErrJobNotComplete)

	done, err := client.Poll()
	require.NoError(t, err)
	assert.False(t, done)

	_, err = client.Result()
	assert.ErrorIs(t, err, ErrJobNotComplete)

	srv.AssertDone()
}

func TestSubmitPollResult(t *testing.T) {
	client, srv := dialMock(t, []mockserver.Step{
		{Want: protocol.KindJobInput, Reply: protocol.Status{Phase: protocol.PhaseAccepted, ServerJobID: 1}},
		{Want: protocol.KindStatus, WantEmpty: true, Reply: protocol.Status{Busy: true, Phase: protocol.PhaseWorking}},
		{Want: protocol.KindStatus, WantEmpty: true, Reply: protocol.Status{Busy: true, Phase: protocol.PhaseCompleted}},
		{SkipRecv: true, Reply: waterOutput(protocol.RunEnergy)},
	})

	accepted, err := client.Submit(waterRequest(t, protocol.RunEnergy))
	require.NoError(t, err)
	require.True(t, accepted)

	done, err := client.Poll()
	require.NoError(t, err)
	assert.False(t, done)

	done, err = client.Poll()
	require.NoError(t, err)
	require.True(t, done)

	// Completion is idempotent until the result is fetched.
	done, err = client.Poll()
	require.NoError(t, err)
	assert.True(t, done)

	res, err := client.Result()
	require.NoError(t, err)
	energy, ok := res.Energy()
	require.True(t, ok)
	assert.InDelta(t, waterEnergy, energy, 1e-5)

	// The slot is free again.
	_, ok = client.Handle()
	assert.False(t, ok)

	srv.AssertDone()
}

func TestComputeGradientAndWarmStart(t *testing.T) {
	b := waterBuilder(t)
	req, err := b.Build(protocol.RunGradient, waterXYZ, protocol.UnitAngstrom)
	require.NoError(t, err)

	client, srv := dialMock(t, []mockserver.Step{
		{Want: protocol.KindJobInput, Reply: protocol.Status{Busy: true}},
		{Want: protocol.KindJobInput, Reply: protocol.Status{Phase: protocol.PhaseAccepted, ServerJobID: 3}},
		{Want: protocol.KindStatus, WantEmpty: true, Reply: protocol.Status{Busy: true, Phase: protocol.PhaseWorking}},
		{Want: protocol.KindStatus, WantEmpty: true, Reply: protocol.Status{Busy: true, Phase: protocol.PhaseCompleted}},
		{SkipRecv: true, Reply: waterOutput(protocol.RunGradient)},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := client.Compute(ctx, req, 5*time.Millisecond)
	require.NoError(t, err)

	grad := res.Gradient()
	forces := res.Forces()
	require.Len(t, forces, len(grad))
	negated := make([]float64, len(grad))
	floats.AddScaled(negated, -1, grad)
	assert.True(t, floats.EqualApprox(forces, negated, 1e-12))

	// The finished job's orbitals become the next warm-start guess.
	alpha, _ := b.GuessFiles()
	assert.Equal(t, "/scratch/job_1/scr/c0", alpha)

	srv.AssertDone()
}

func TestComputeCancel(t *testing.T) {
	client, srv := dialMock(t, []mockserver.Step{
		{Want: protocol.KindJobInput, Reply: protocol.Status{Busy: true}},
	})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Compute(ctx, waterRequest(t, protocol.RunEnergy), time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWrongKindAfterCompleted(t *testing.T) {
	molPayload, err := waterOutput(protocol.RunEnergy).Mol.MarshalPayload()
	require.NoError(t, err)

	client, srv := dialMock(t, []mockserver.Step{
		{Want: protocol.KindJobInput, Reply: protocol.Status{Phase: protocol.PhaseAccepted}},
		{Want: protocol.KindStatus, WantEmpty: true, Reply: protocol.Status{Busy: true, Phase: protocol.PhaseCompleted}},
		{SkipRecv: true, RawReply: &frame.Envelope{
			Kind:    uint32(protocol.KindMol),
			Payload: molPayload,
		}},
	})

	accepted, err := client.Submit(waterRequest(t, protocol.RunEnergy))
	require.NoError(t, err)
	require.True(t, accepted)

	done, err := client.Poll()
	require.NoError(t, err)
	require.True(t, done)

	_, err = client.Result()
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, protocol.KindJobOutput, protoErr.Want)
	assert.Equal(t, protocol.KindMol, protoErr.Got)
	assert.False(t, client.conn.Open())

	srv.AssertDone()
}

func TestUnexpectedPhaseOnSubmit(t *testing.T) {
	client, srv := dialMock(t, []mockserver.Step{
		{Want: protocol.KindJobInput, Reply: protocol.Status{Busy: true, Phase: protocol.PhaseCompleted}},
	})

	_, err := client.Submit(waterRequest(t, protocol.RunEnergy))
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.False(t, client.conn.Open())

	srv.AssertDone()
}
