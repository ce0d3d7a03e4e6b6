package config

import (
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/eth"
	"github.com/spf13/viper"
)

type Contract struct {
	// Chain the GigEscrow contract is deployed on
	Chain eth.Chain

	// RPC endpoint. Empty means the chain's public default
	RpcUrl string

	// GigEscrow contract address
	EscrowAddress string

	// MNEE ERC-20 token address
	TokenAddress string

	// Hex-encoded private key used to sign state-changing calls
	SignerKey string

	// Timeout for a single eth_call
	CallTimeout time.Duration

	// How often receipt is polled while awaiting confirmation
	ReceiptPollInterval time.Duration

	// Max time to wait for a transaction to be mined
	ReceiptTimeout time.Duration

	// How often new contract logs are polled
	EventPollInterval time.Duration

	// Max blocks fetched in one log poll
	EventPollBatchSize int64

	// Buffered events per subscription
	EventChannelSize int

	// How long a gig read stays in the cache
	GigCacheTTL time.Duration

	// How often expired gig reads are evicted
	GigCacheCleanupInterval time.Duration
}

func setContractDefaults() {
	viper.SetDefault("Contract.Chain", eth.Sepolia)
	viper.SetDefault("Contract.RpcUrl", "")
	viper.SetDefault("Contract.EscrowAddress", "0x74F93b26a93B6B7d72cD4bd61c922eb1c8fd393f")
	viper.SetDefault("Contract.TokenAddress", "0xAE11Ef2C367644Ba662c7662237FC0349A7e4211")
	viper.SetDefault("Contract.SignerKey", "")
	viper.SetDefault("Contract.CallTimeout", "15s")
	viper.SetDefault("Contract.ReceiptPollInterval", "3s")
	viper.SetDefault("Contract.ReceiptTimeout", "3m")
	viper.SetDefault("Contract.EventPollInterval", "10s")
	viper.SetDefault("Contract.EventPollBatchSize", 1000)
	viper.SetDefault("Contract.EventChannelSize", 100)
	viper.SetDefault("Contract.GigCacheTTL", "30s")
	viper.SetDefault("Contract.GigCacheCleanupInterval", "5m")
}
