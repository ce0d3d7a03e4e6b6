package escrow

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/model"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

type StoreTestSuite struct {
	suite.Suite
	config *config.Config
	input  chan Event
	store  *Store
}

func (s *StoreTestSuite) SetupTest() {
	s.config = config.Default()

	db, err := model.ConnectInMemory()
	require.NoError(s.T(), err)

	s.input = make(chan Event, 16)
	s.store = NewStore(s.config, db, s.input).
		WithMonitor(monitor_escrow.NewMonitor().WithMaxHistorySize(30))

	err = s.store.Start()
	require.NoError(s.T(), err)
}

func (s *StoreTestSuite) TearDownTest() {
	close(s.input)
	s.store.StopWait()
}

func (s *StoreTestSuite) created(gigId uint64) *GigCreatedEvent {
	amount, _ := new(big.Int).SetString("1000000000000000000000", 10)
	return &GigCreatedEvent{
		GigId:      gigId,
		Client:     "0x742d35Cc6634C0532925a3b844Bc9e7595f8fE00",
		Freelancer: "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		Amount:     amount,
		RepoOwner:  "ethereum",
		RepoName:   "go-ethereum",
		PrId:       "28547",
	}
}

func (s *StoreTestSuite) waitForCount(filter GigFilter, expected int) {
	require.Eventually(s.T(), func() bool {
		gigs, err := s.store.List(context.Background(), filter)
		require.NoError(s.T(), err)
		return len(gigs) == expected
	}, 5*time.Second, 10*time.Millisecond)
}

func (s *StoreTestSuite) TestProjectsCreatedGig() {
	s.input <- s.created(1)
	s.waitForCount(FilterAll, 1)

	gigs, err := s.store.List(context.Background(), FilterAll)
	require.NoError(s.T(), err)
	require.EqualValues(s.T(), 1, gigs[0].Id)
	require.Equal(s.T(), "1000000000000000000000", gigs[0].Amount)
	require.Equal(s.T(), string(StatusLocked), gigs[0].Status)
	require.True(s.T(), gigs[0].IsOpen)
}

func (s *StoreTestSuite) TestVerificationLifecycle() {
	s.input <- s.created(1)
	s.input <- &WorkVerificationRequestedEvent{GigId: 1, RequestId: "0x01", Requester: "0x742d"}
	s.waitForCount(FilterOpen, 1)

	require.Eventually(s.T(), func() bool {
		gigs, _ := s.store.List(context.Background(), FilterAll)
		return len(gigs) == 1 && gigs[0].Status == string(StatusPending)
	}, 5*time.Second, 10*time.Millisecond)

	// Oracle says not merged, back to locked
	s.input <- &WorkVerifiedEvent{GigId: 1, RequestId: "0x01", IsMerged: false}
	require.Eventually(s.T(), func() bool {
		gigs, _ := s.store.List(context.Background(), FilterAll)
		return gigs[0].Status == string(StatusLocked)
	}, 5*time.Second, 10*time.Millisecond)
}

func (s *StoreTestSuite) TestPaymentReleasedClosesGig() {
	amount, _ := new(big.Int).SetString("1000000000000000000000", 10)

	s.input <- s.created(1)
	s.input <- s.created(2)
	s.input <- &PaymentReleasedEvent{GigId: 2, Freelancer: "0x8ba1", Amount: amount}

	s.waitForCount(FilterMerged, 1)
	s.waitForCount(FilterOpen, 1)

	counts, err := s.store.Counts(context.Background())
	require.NoError(s.T(), err)
	require.EqualValues(s.T(), 2, counts.Total)
	require.EqualValues(s.T(), 1, counts.Open)
	require.EqualValues(s.T(), 1, counts.Merged)
	require.EqualValues(s.T(), 0, counts.Cancelled)
}

func (s *StoreTestSuite) TestCancellation() {
	amount, _ := new(big.Int).SetString("1000000000000000000000", 10)

	s.input <- s.created(1)
	s.input <- &GigCancelledEvent{GigId: 1, Client: "0x742d", Amount: amount}

	s.waitForCount(FilterCancelled, 1)

	gigs, err := s.store.List(context.Background(), FilterCancelled)
	require.NoError(s.T(), err)
	require.False(s.T(), gigs[0].IsOpen)
}

func (s *StoreTestSuite) TestListOrderNewestFirst() {
	s.input <- s.created(1)
	s.input <- s.created(2)
	s.input <- s.created(3)
	s.waitForCount(FilterAll, 3)

	gigs, err := s.store.List(context.Background(), FilterAll)
	require.NoError(s.T(), err)
	require.EqualValues(s.T(), 3, gigs[0].Id)
	require.EqualValues(s.T(), 1, gigs[2].Id)
}

func (s *StoreTestSuite) TestUnknownFilterRejected() {
	_, err := s.store.List(context.Background(), GigFilter("bogus"))

	var validationErr *ValidationError
	require.ErrorAs(s.T(), err, &validationErr)
}
