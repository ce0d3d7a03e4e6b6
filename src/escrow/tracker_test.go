package escrow

import (
	"math/big"
	"testing"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/terminal"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/token"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestTrackerTestSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}

type TrackerTestSuite struct {
	suite.Suite
	config   *config.Config
	gateway  *MemoryGateway
	terminal *terminal.Terminal
	monitor  *monitor_escrow.Monitor
	tracker  *Tracker
}

func (s *TrackerTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.DemoMode = true
	s.config.Tracker.VerifyTimeout = 5 * time.Second

	s.gateway = NewMemoryGateway(s.config)
	s.terminal = terminal.NewTerminal(s.config)
	s.monitor = monitor_escrow.NewMonitor().WithMaxHistorySize(30)
	s.tracker = NewTracker(s.config, s.gateway, s.terminal).
		WithMonitor(s.monitor)

	err := s.tracker.Start()
	require.NoError(s.T(), err)
}

func (s *TrackerTestSuite) TearDownTest() {
	s.tracker.StopWait()
	s.gateway.Close()
}

// createGigs appends open gigs after the seeded ones, returning the last id
func (s *TrackerTestSuite) createGigs(n int) (gigId uint64) {
	amount, _ := new(big.Int).SetString("100000000000000000000", 10)
	for i := 0; i < n; i++ {
		_, err := s.gateway.SubmitCreateGig(s.tracker.Ctx,
			"0x8ba1f109551bD432803012645Ac136ddd64DBA72", amount, "ethereum", "go-ethereum", "28547")
		require.NoError(s.T(), err)
	}
	count, err := s.gateway.GigCount(s.tracker.Ctx)
	require.NoError(s.T(), err)
	return count
}

func (s *TrackerTestSuite) waitForStatus(status VerificationStatus) {
	require.Eventually(s.T(), func() bool {
		result := s.tracker.Result()
		return result != nil && result.Status == status
	}, 5*time.Second, 10*time.Millisecond)
}

func (s *TrackerTestSuite) TestIdleByDefault() {
	require.Nil(s.T(), s.tracker.Result())
	require.Equal(s.T(), TxIdle, s.tracker.TransactionState().Status)
}

func (s *TrackerTestSuite) TestNotMergedOutcome() {
	gigId := s.createGigs(2)
	require.EqualValues(s.T(), 5, gigId)

	err := s.tracker.Verify(gigId)
	require.NoError(s.T(), err)
	s.waitForStatus(VerificationSubmitted)

	s.gateway.EmitEvent(&WorkVerifiedEvent{GigId: gigId, RequestId: "0x01", IsMerged: false})
	s.waitForStatus(VerificationNotMerged)

	result := s.tracker.Result()
	require.NotEmpty(s.T(), result.ErrorMessage)
	require.Equal(s.T(), gigId, result.GigId)
}

func (s *TrackerTestSuite) TestVerifiedOutcome() {
	gigId := s.createGigs(4)
	require.EqualValues(s.T(), 7, gigId)

	err := s.tracker.Verify(gigId)
	require.NoError(s.T(), err)
	s.waitForStatus(VerificationSubmitted)

	released, _ := new(big.Int).SetString("500000000000000000000", 10)
	s.gateway.EmitEvent(&PaymentReleasedEvent{
		GigId:      gigId,
		Freelancer: "0xABCD000000000000000000000000000000000000",
		Amount:     released,
	})
	s.waitForStatus(VerificationVerified)

	result := s.tracker.Result()
	require.Equal(s.T(), "500.0000", token.Format(result.Amount))
	require.Equal(s.T(), "0xABCD000000000000000000000000000000000000", result.Recipient)
}

func (s *TrackerTestSuite) TestTerminalStateLatches() {
	gigId := s.createGigs(1)

	err := s.tracker.Verify(gigId)
	require.NoError(s.T(), err)
	s.waitForStatus(VerificationSubmitted)

	s.gateway.EmitEvent(&WorkVerifiedEvent{GigId: gigId, RequestId: "0x01", IsMerged: false})
	s.waitForStatus(VerificationNotMerged)

	// A later event for the same gig must not move the tracker again
	released, _ := new(big.Int).SetString("100000000000000000000", 10)
	s.gateway.EmitEvent(&PaymentReleasedEvent{GigId: gigId, Freelancer: "0xABCD", Amount: released})

	time.Sleep(100 * time.Millisecond)
	require.Equal(s.T(), VerificationNotMerged, s.tracker.Result().Status)
}

func (s *TrackerTestSuite) TestUntrackedEventsIgnored() {
	released, _ := new(big.Int).SetString("100000000000000000000", 10)
	s.gateway.EmitEvent(&PaymentReleasedEvent{GigId: 3, Freelancer: "0xABCD", Amount: released})

	time.Sleep(100 * time.Millisecond)
	require.Nil(s.T(), s.tracker.Result())
}

func (s *TrackerTestSuite) TestClearIdempotent() {
	s.tracker.Clear()
	require.Nil(s.T(), s.tracker.Result())

	gigId := s.createGigs(1)
	err := s.tracker.Verify(gigId)
	require.NoError(s.T(), err)
	s.waitForStatus(VerificationSubmitted)

	s.gateway.EmitEvent(&WorkVerifiedEvent{GigId: gigId, RequestId: "0x01", IsMerged: false})
	s.waitForStatus(VerificationNotMerged)

	s.tracker.Clear()
	require.Nil(s.T(), s.tracker.Result())
	require.Equal(s.T(), TxIdle, s.tracker.TransactionState().Status)

	s.tracker.Clear()
	require.Nil(s.T(), s.tracker.Result())
}

func (s *TrackerTestSuite) TestConcurrentVerifyRejected() {
	gigId := s.createGigs(2)

	err := s.tracker.Verify(gigId)
	require.NoError(s.T(), err)

	err = s.tracker.Verify(gigId - 1)
	require.ErrorIs(s.T(), err, ErrVerificationInFlight)
}

func (s *TrackerTestSuite) TestVerifyAgainAfterClear() {
	gigId := s.createGigs(1)

	err := s.tracker.Verify(gigId)
	require.NoError(s.T(), err)
	s.waitForStatus(VerificationSubmitted)

	s.gateway.EmitEvent(&WorkVerifiedEvent{GigId: gigId, RequestId: "0x01", IsMerged: false})
	s.waitForStatus(VerificationNotMerged)
	s.tracker.Clear()

	another := s.createGigs(1)
	err = s.tracker.Verify(another)
	require.NoError(s.T(), err)
	s.waitForStatus(VerificationSubmitted)
}

func (s *TrackerTestSuite) TestSubmitFailure() {
	// Seeded gig 3 is closed, the simulated contract rejects verifyWork
	err := s.tracker.Verify(3)
	require.NoError(s.T(), err)

	s.waitForStatus(VerificationError)
	require.Contains(s.T(), s.tracker.Result().ErrorMessage, "not open")
	require.Equal(s.T(), TxError, s.tracker.TransactionState().Status)
}

// A deadline timer firing after the attempt already reached a terminal state
// must neither move the tracker nor count as a timeout
func (s *TrackerTestSuite) TestLateTimerAfterOutcome() {
	gigId := s.createGigs(1)

	err := s.tracker.Verify(gigId)
	require.NoError(s.T(), err)
	s.waitForStatus(VerificationSubmitted)

	s.gateway.EmitEvent(&WorkVerifiedEvent{GigId: gigId, RequestId: "0x01", IsMerged: false})
	s.waitForStatus(VerificationNotMerged)

	s.tracker.mtx.RLock()
	seq := s.tracker.seq
	s.tracker.mtx.RUnlock()

	s.tracker.expire(seq)

	require.Equal(s.T(), VerificationNotMerged, s.tracker.Result().Status)
	require.Zero(s.T(), s.monitor.Report.Tracker.Errors.VerifyTimeouts.Load())
}

func (s *TrackerTestSuite) TestTimeout() {
	s.config.Tracker.VerifyTimeout = 50 * time.Millisecond

	gigId := s.createGigs(1)
	err := s.tracker.Verify(gigId)
	require.NoError(s.T(), err)

	s.waitForStatus(VerificationError)
	require.Contains(s.T(), s.tracker.Result().ErrorMessage, "timed out")
}
