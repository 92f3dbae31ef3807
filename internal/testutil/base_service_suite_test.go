package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ClockSuite struct {
	BaseServiceTestSuite
}

func TestSuiteClock(t *testing.T) {
	suite.Run(t, new(ClockSuite))
}

func (s *ClockSuite) TestClockStartsAtFixedTime() {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	s.True(s.GetNow().Equal(start), s.GetNow())

	s.GetClock().Add(36 * time.Hour)
	s.True(s.GetNow().Equal(start.Add(36 * time.Hour)))
}

func (s *ClockSuite) TestClockResetsBetweenTests() {
	s.True(s.GetNow().Equal(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)))
}
