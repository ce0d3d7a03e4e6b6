package terminal

import (
	"fmt"
	"testing"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestTerminalTestSuite(t *testing.T) {
	suite.Run(t, new(TerminalTestSuite))
}

type TerminalTestSuite struct {
	suite.Suite
	config *config.Config
}

func (s *TerminalTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.Terminal.Capacity = 10
}

func (s *TerminalTestSuite) TestSeedEntries() {
	term := NewTerminal(s.config)

	logs := term.Logs()
	require.Len(s.T(), logs, 2)
	require.Equal(s.T(), "system", logs[0].Prefix)
	require.Equal(s.T(), "web3", logs[1].Prefix)
}

func (s *TerminalTestSuite) TestCapacityEviction() {
	capacity := s.config.Terminal.Capacity
	term := NewTerminal(s.config)

	for i := 0; i < capacity+1; i++ {
		term.AddLog(Info, fmt.Sprintf("entry %d", i), "test")
	}

	logs := term.Logs()
	require.Len(s.T(), logs, capacity)

	// Oldest first, seed entries and entry 0 evicted
	require.Equal(s.T(), "entry 1", logs[0].Message)
	require.Equal(s.T(), fmt.Sprintf("entry %d", capacity), logs[capacity-1].Message)
}

func (s *TerminalTestSuite) TestClear() {
	term := NewTerminal(s.config)
	term.AddLog(Success, "something happened", "test")

	term.Clear()

	logs := term.Logs()
	require.Len(s.T(), logs, 1)
	require.Equal(s.T(), "Terminal cleared", logs[0].Message)
	require.Equal(s.T(), Info, logs[0].Type)
}

func (s *TerminalTestSuite) TestSubscribe() {
	term := NewTerminal(s.config)

	sub := term.Subscribe()
	term.AddLog(Warning, "heads up", "test")

	entry := <-sub.C
	require.Equal(s.T(), "heads up", entry.Message)
	require.Equal(s.T(), Warning, entry.Type)

	sub.Unsubscribe()
	_, ok := <-sub.C
	require.False(s.T(), ok)
}

// Entries beyond the subscriber buffer are dropped, not delivered late
func (s *TerminalTestSuite) TestSlowSubscriberDoesNotBlock() {
	s.config.Terminal.SubscriberChannelSize = 1
	term := NewTerminal(s.config)

	sub := term.Subscribe()
	defer sub.Unsubscribe()

	term.AddLog(Info, "first", "test")
	term.AddLog(Info, "second", "test")

	entry := <-sub.C
	require.Equal(s.T(), "first", entry.Message)
	require.Empty(s.T(), sub.C)
}
