package config

import (
	"time"

	"github.com/spf13/viper"
)

type Github struct {
	// GitHub REST API base url
	ApiUrl string

	// Optional token for a higher rate limit
	Token string

	// Timeout for HTTP requests
	RequestTimeout time.Duration
}

func setGithubDefaults() {
	viper.SetDefault("Github.ApiUrl", "https://api.github.com")
	viper.SetDefault("Github.Token", "")
	viper.SetDefault("Github.RequestTimeout", "30s")
}
