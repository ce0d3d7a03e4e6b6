package eth

import (
	"errors"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/core/types"
)

// GigEscrow contract interface, trimmed to the calls and events this client uses.
// Argument encoding has to match the deployed contract exactly.
const gigEscrowABIJson = `[
  {"type":"function","name":"createGig","stateMutability":"nonpayable",
   "inputs":[
     {"name":"freelancer","type":"address"},
     {"name":"amount","type":"uint256"},
     {"name":"repoOwner","type":"string"},
     {"name":"repoName","type":"string"},
     {"name":"prId","type":"string"}],
   "outputs":[{"name":"gigId","type":"uint256"}]},
  {"type":"function","name":"verifyWork","stateMutability":"nonpayable",
   "inputs":[{"name":"gigId","type":"uint256"}],
   "outputs":[{"name":"requestId","type":"bytes32"}]},
  {"type":"function","name":"cancelGig","stateMutability":"nonpayable",
   "inputs":[{"name":"gigId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"getGig","stateMutability":"view",
   "inputs":[{"name":"gigId","type":"uint256"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"client","type":"address"},
     {"name":"freelancer","type":"address"},
     {"name":"amount","type":"uint256"},
     {"name":"repoOwner","type":"string"},
     {"name":"repoName","type":"string"},
     {"name":"prId","type":"string"},
     {"name":"isOpen","type":"bool"},
     {"name":"createdAt","type":"uint256"}]}]},
  {"type":"function","name":"s_gigCounter","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"hasPendingRequest","stateMutability":"view",
   "inputs":[{"name":"gigId","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"event","name":"GigCreated","anonymous":false,"inputs":[
     {"name":"gigId","type":"uint256","indexed":true},
     {"name":"client","type":"address","indexed":true},
     {"name":"freelancer","type":"address","indexed":true},
     {"name":"amount","type":"uint256","indexed":false},
     {"name":"repoOwner","type":"string","indexed":false},
     {"name":"repoName","type":"string","indexed":false},
     {"name":"prId","type":"string","indexed":false}]},
  {"type":"event","name":"GigCancelled","anonymous":false,"inputs":[
     {"name":"gigId","type":"uint256","indexed":true},
     {"name":"client","type":"address","indexed":true},
     {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"GigFunded","anonymous":false,"inputs":[
     {"name":"gigId","type":"uint256","indexed":true},
     {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"WorkVerificationRequested","anonymous":false,"inputs":[
     {"name":"gigId","type":"uint256","indexed":true},
     {"name":"requestId","type":"bytes32","indexed":true},
     {"name":"requester","type":"address","indexed":true}]},
  {"type":"event","name":"WorkVerified","anonymous":false,"inputs":[
     {"name":"gigId","type":"uint256","indexed":true},
     {"name":"requestId","type":"bytes32","indexed":true},
     {"name":"isMerged","type":"bool","indexed":false}]},
  {"type":"event","name":"PaymentReleased","anonymous":false,"inputs":[
     {"name":"gigId","type":"uint256","indexed":true},
     {"name":"freelancer","type":"address","indexed":true},
     {"name":"amount","type":"uint256","indexed":false}]}
]`

const erc20ABIJson = `[
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"allowance","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]}
]`

var (
	parseOnce    sync.Once
	gigEscrowABI abi.ABI
	erc20ABI     abi.ABI
	parseErr     error
)

func parseABIs() {
	gigEscrowABI, parseErr = abi.JSON(strings.NewReader(gigEscrowABIJson))
	if parseErr != nil {
		return
	}
	erc20ABI, parseErr = abi.JSON(strings.NewReader(erc20ABIJson))
}

func GigEscrowABI() (*abi.ABI, error) {
	parseOnce.Do(parseABIs)
	if parseErr != nil {
		return nil, parseErr
	}
	return &gigEscrowABI, nil
}

func ERC20ABI() (*abi.ABI, error) {
	parseOnce.Do(parseABIs)
	if parseErr != nil {
		return nil, parseErr
	}
	return &erc20ABI, nil
}

// DecodeEventLog matches a raw log against the contract ABI and unpacks both
// indexed topics and data into one map keyed by argument name.
func DecodeEventLog(contractABI *abi.ABI, vLog types.Log) (name string, eventMap map[string]interface{}, err error) {
	if len(vLog.Topics) == 0 {
		err = errors.New("log has no topics")
		return
	}

	event, err := contractABI.EventByID(vLog.Topics[0])
	if err != nil {
		return
	}
	name = event.Name

	eventMap = make(map[string]interface{})

	indexed := make([]abi.Argument, 0)
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	err = abi.ParseTopicsIntoMap(eventMap, indexed, vLog.Topics[1:])
	if err != nil {
		return
	}

	if len(vLog.Data) > 0 {
		err = contractABI.UnpackIntoMap(eventMap, event.Name, vLog.Data)
		if err != nil {
			return
		}
	}

	return
}
