package escrow

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/terminal"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestListenerTestSuite(t *testing.T) {
	suite.Run(t, new(ListenerTestSuite))
}

type ListenerTestSuite struct {
	suite.Suite
	config *config.Config
}

func (s *ListenerTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.DemoMode = true
}

func (s *ListenerTestSuite) newListener(gateway *MemoryGateway) (*Listener, *terminal.Terminal) {
	term := terminal.NewTerminal(s.config)
	listener := NewListener(s.config, gateway, term).
		WithMonitor(monitor_escrow.NewMonitor().WithMaxHistorySize(30))

	err := listener.Start()
	require.NoError(s.T(), err)
	return listener, term
}

func (s *ListenerTestSuite) TestForwardsEvents() {
	gateway := NewMemoryGateway(s.config)
	defer gateway.Close()

	listener, term := s.newListener(gateway)
	defer listener.StopWait()

	amount, _ := new(big.Int).SetString("1000000000000000000000", 10)
	gateway.EmitEvent(&GigCreatedEvent{
		GigId:      4,
		Client:     demoAddress,
		Freelancer: "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		Amount:     amount,
		RepoOwner:  "ethereum",
		RepoName:   "go-ethereum",
		PrId:       "28547",
	})

	select {
	case event := <-listener.Output:
		created, ok := event.(*GigCreatedEvent)
		require.True(s.T(), ok)
		require.EqualValues(s.T(), 4, created.GigId)
	case <-time.After(5 * time.Second):
		s.T().Fatal("event was not forwarded")
	}

	require.Eventually(s.T(), func() bool {
		for _, entry := range term.Logs() {
			if entry.Prefix == "escrow" && entry.Type == terminal.Success {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}

// Stopping the listener while the gateway is still delivering must never
// race the output channel teardown against an in-flight forward
func (s *ListenerTestSuite) TestStopDuringDelivery() {
	amount := big.NewInt(1)

	for i := 0; i < 50; i++ {
		gateway := NewMemoryGateway(s.config)
		listener, _ := s.newListener(gateway)

		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					gateway.EmitEvent(&GigFundedEvent{GigId: 1, Amount: amount})
				}
			}
		}()

		listener.StopWait()

		close(stop)
		wg.Wait()
		gateway.Close()

		// Output is closed exactly once, after delivery has quiesced
		for range listener.Output {
		}
	}
}
