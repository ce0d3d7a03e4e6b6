package config

import (
	"time"

	"github.com/spf13/viper"
)

type Listener struct {
	// Maximum length of the gig update channel
	ChannelSize int
}

type Store struct {
	// Max time between failed retries to save a gig projection
	BackoffInterval time.Duration

	// Max total time an upsert is retried. 0 means no limit
	MaxElapsedTime time.Duration
}

func setListenerDefaults() {
	viper.SetDefault("Listener.ChannelSize", 100)
}

func setStoreDefaults() {
	viper.SetDefault("Store.BackoffInterval", "3s")
	viper.SetDefault("Store.MaxElapsedTime", "0")
}
