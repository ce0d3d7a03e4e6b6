package eth

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

type Chain int

const (
	Sepolia  Chain = iota
	Mainnet  Chain = iota
	Polygon  Chain = iota
	Arbitrum Chain = iota
	Base     Chain = iota
)

func (chain Chain) RpcProviderUrl() (rpcProviderUrl string, err error) {
	switch chain {
	case Sepolia:
		rpcProviderUrl = "https://ethereum-sepolia-rpc.publicnode.com"
		return
	case Mainnet:
		rpcProviderUrl = "https://ethereum-rpc.publicnode.com"
		return
	case Polygon:
		rpcProviderUrl = "https://polygon-rpc.com"
		return
	case Arbitrum:
		rpcProviderUrl = "https://arb1.arbitrum.io/rpc"
		return
	case Base:
		rpcProviderUrl = "https://mainnet.base.org"
		return
	}

	err = errors.New("ETH chain unknown")
	return
}

func (chain Chain) ExplorerUrl() string {
	switch chain {
	case Sepolia:
		return "https://sepolia.etherscan.io"
	case Mainnet:
		return "https://etherscan.io"
	case Polygon:
		return "https://polygonscan.com"
	case Arbitrum:
		return "https://arbiscan.io"
	case Base:
		return "https://basescan.org"
	}
	return ""
}

func (chain Chain) ChainId() *big.Int {
	switch chain {
	case Sepolia:
		return big.NewInt(11155111)
	case Mainnet:
		return big.NewInt(1)
	case Polygon:
		return big.NewInt(137)
	case Arbitrum:
		return big.NewInt(42161)
	case Base:
		return big.NewInt(8453)
	}
	return nil
}

func (chain Chain) String() string {
	switch chain {
	case Sepolia:
		return "sepolia"
	case Mainnet:
		return "mainnet"
	case Polygon:
		return "polygon"
	case Arbitrum:
		return "arbitrum"
	case Base:
		return "base"
	}
	return ""
}

func GetEthClient(log *logrus.Entry, chain Chain, rpcUrl string) (client *ethclient.Client, err error) {
	if rpcUrl == "" {
		rpcUrl, err = chain.RpcProviderUrl()
		if err != nil {
			log.WithError(err).Error("ETH chain unknown")
			return
		}
	}

	client, err = ethclient.Dial(rpcUrl)
	if err != nil {
		log.WithError(err).Error("Cannot get ETH client")
		return
	}

	return
}
