package server

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/github"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/model"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/terminal"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

func TestServerTestSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

type ServerTestSuite struct {
	suite.Suite
	config   *config.Config
	gateway  *escrow.MemoryGateway
	tracker  *escrow.Tracker
	listener *escrow.Listener
	store    *escrow.Store
	server   *Server
}

func (s *ServerTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.DemoMode = true

	db, err := model.ConnectInMemory()
	require.NoError(s.T(), err)

	monitor := monitor_escrow.NewMonitor().WithMaxHistorySize(30)
	term := terminal.NewTerminal(s.config)

	s.gateway = escrow.NewMemoryGateway(s.config)
	s.tracker = escrow.NewTracker(s.config, s.gateway, term).WithMonitor(monitor)
	s.listener = escrow.NewListener(s.config, s.gateway, term).WithMonitor(monitor)
	s.store = escrow.NewStore(s.config, db, s.listener.Output).WithMonitor(monitor)

	require.NoError(s.T(), s.tracker.Start())
	require.NoError(s.T(), s.listener.Start())
	require.NoError(s.T(), s.store.Start())

	s.server = NewServer(s.config).
		WithGateway(s.gateway).
		WithTracker(s.tracker).
		WithStore(s.store).
		WithTerminal(term).
		WithGithub(github.NewClient(s.config)).
		WithMonitor(monitor)
	require.NoError(s.T(), s.server.setupRoutes())
}

func (s *ServerTestSuite) TearDownTest() {
	s.tracker.StopWait()
	s.listener.StopWait()
	s.store.StopWait()
	s.gateway.Close()
}

func (s *ServerTestSuite) request(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.server.Router.ServeHTTP(w, req)
	return w
}

func (s *ServerTestSuite) TestGetGig() {
	w := s.request(http.MethodGet, "/v1/gigs/1", "")
	require.Equal(s.T(), http.StatusOK, w.Code)

	var out struct {
		AmountDisplay string `json:"amountDisplay"`
		Gig           struct {
			RepoOwner string `json:"repoOwner"`
		} `json:"gig"`
	}
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(s.T(), "1000.0000", out.AmountDisplay)
	require.Equal(s.T(), "ethereum", out.Gig.RepoOwner)
}

func (s *ServerTestSuite) TestGetGigNotFound() {
	w := s.request(http.MethodGet, "/v1/gigs/99", "")
	require.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *ServerTestSuite) TestGetGigBadId() {
	w := s.request(http.MethodGet, "/v1/gigs/abc", "")
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *ServerTestSuite) TestCreateGig() {
	w := s.request(http.MethodPost, "/v1/gigs",
		`{"freelancerAddress":"0x8ba1f109551bD432803012645Ac136ddd64DBA72","amount":"250","repoOwner":"ethereum","repoName":"go-ethereum","prId":"28547"}`)
	require.Equal(s.T(), http.StatusAccepted, w.Code)

	// The event pipeline materializes the projection
	require.Eventually(s.T(), func() bool {
		gigs, err := s.store.List(context.Background(), escrow.FilterAll)
		require.NoError(s.T(), err)
		return len(gigs) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func (s *ServerTestSuite) TestCreateGigRejectsBadAddress() {
	w := s.request(http.MethodPost, "/v1/gigs",
		`{"freelancerAddress":"not-an-address","amount":"250","repoOwner":"ethereum","repoName":"go-ethereum","prId":"28547"}`)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
	require.Contains(s.T(), w.Body.String(), "freelancerAddress")
}

func (s *ServerTestSuite) TestVerification() {
	w := s.request(http.MethodPost, "/v1/gigs/1/verify", "")
	require.Equal(s.T(), http.StatusAccepted, w.Code)

	require.Eventually(s.T(), func() bool {
		result := s.tracker.Result()
		return result != nil && result.Status == escrow.VerificationSubmitted
	}, 5*time.Second, 10*time.Millisecond)

	// Second verification while one is in flight
	w = s.request(http.MethodPost, "/v1/gigs/1/verify", "")
	require.Equal(s.T(), http.StatusConflict, w.Code)

	w = s.request(http.MethodGet, "/v1/verification", "")
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Contains(s.T(), w.Body.String(), "submitted")

	w = s.request(http.MethodDelete, "/v1/verification", "")
	require.Equal(s.T(), http.StatusNoContent, w.Code)
	require.Nil(s.T(), s.tracker.Result())
}

func (s *ServerTestSuite) TestTerminal() {
	w := s.request(http.MethodGet, "/v1/terminal", "")
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Contains(s.T(), w.Body.String(), "Trustless Gig Escrow")

	w = s.request(http.MethodDelete, "/v1/terminal", "")
	require.Equal(s.T(), http.StatusNoContent, w.Code)

	w = s.request(http.MethodGet, "/v1/terminal", "")
	require.Contains(s.T(), w.Body.String(), "Terminal cleared")
}

func (s *ServerTestSuite) TestTokenBalance() {
	w := s.request(http.MethodGet, "/v1/token/balance", "")
	require.Equal(s.T(), http.StatusOK, w.Code)
	require.Contains(s.T(), w.Body.String(), "10000.0000")
}

func (s *ServerTestSuite) TestMonitorEndpoints() {
	for _, path := range []string{"/v1/state", "/v1/health", "/v1/metrics"} {
		w := s.request(http.MethodGet, path, "")
		require.Equal(s.T(), http.StatusOK, w.Code, path)
	}
}

// recordingGateway counts write calls so tests can assert nothing reached the
// contract boundary
type recordingGateway struct {
	createCalls atomic.Int64
}

func (self *recordingGateway) Address() string { return "0x0000000000000000000000000000000000000001" }

func (self *recordingGateway) GigCount(ctx context.Context) (uint64, error) { return 0, nil }

func (self *recordingGateway) GigByID(ctx context.Context, gigId uint64) (*escrow.Gig, error) {
	return nil, &escrow.NotFoundError{GigId: gigId}
}

func (self *recordingGateway) SubmitCreateGig(ctx context.Context, freelancer string, amount *big.Int, repoOwner, repoName, prId string) (escrow.TxHandle, error) {
	self.createCalls.Add(1)
	return "0x01", nil
}

func (self *recordingGateway) SubmitVerifyWork(ctx context.Context, gigId uint64) (escrow.TxHandle, error) {
	return "0x02", nil
}

func (self *recordingGateway) SubmitCancelGig(ctx context.Context, gigId uint64) (escrow.TxHandle, error) {
	return "0x03", nil
}

func (self *recordingGateway) AwaitConfirmation(ctx context.Context, handle escrow.TxHandle) (*escrow.Receipt, error) {
	return &escrow.Receipt{Handle: handle, BlockNumber: 1}, nil
}

func (self *recordingGateway) SubscribeToEvent(eventName string, onEvent func(escrow.Event)) (escrow.EventSubscription, error) {
	return noopSubscription{}, nil
}

func (self *recordingGateway) TokenBalance(ctx context.Context, account string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (self *recordingGateway) TokenAllowance(ctx context.Context, owner string) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (self *recordingGateway) SubmitApprove(ctx context.Context, amount *big.Int) (escrow.TxHandle, error) {
	return "0x04", nil
}

type noopSubscription struct{}

func (noopSubscription) Unsubscribe() {}

func TestValidationNeverReachesGateway(t *testing.T) {
	conf := config.Default()
	gateway := new(recordingGateway)

	server := NewServer(conf).
		WithGateway(gateway).
		WithTerminal(terminal.NewTerminal(conf)).
		WithMonitor(monitor_escrow.NewMonitor().WithMaxHistorySize(30))
	require.NoError(t, server.setupRoutes())

	req := httptest.NewRequest(http.MethodPost, "/v1/gigs",
		strings.NewReader(`{"freelancerAddress":"not-an-address","amount":"250","repoOwner":"ethereum","repoName":"go-ethereum","prId":"28547"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Zero(t, gateway.createCalls.Load())
}
