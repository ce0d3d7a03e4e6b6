package config

import (
	"github.com/spf13/viper"
)

type Terminal struct {
	// Number of most recent log entries kept, oldest evicted first
	Capacity int

	// Buffered entries per live subscriber
	SubscriberChannelSize int
}

func setTerminalDefaults() {
	viper.SetDefault("Terminal.Capacity", 50)
	viper.SetDefault("Terminal.SubscriberChannelSize", 16)
}
