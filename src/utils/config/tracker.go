package config

import (
	"time"

	"github.com/spf13/viper"
)

type Tracker struct {
	// Max time between submitting verifyWork and an oracle outcome event.
	// After this the attempt is failed instead of waiting forever.
	VerifyTimeout time.Duration

	// Submissions waiting for the worker
	SubmitQueueSize int
}

func setTrackerDefaults() {
	viper.SetDefault("Tracker.VerifyTimeout", "5m")
	viper.SetDefault("Tracker.SubmitQueueSize", 8)
}
