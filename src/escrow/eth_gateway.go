package escrow

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/eth"
	monitor_escrow "github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/monitoring/escrow"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/task"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	cache "github.com/patrickmn/go-cache"
	"github.com/rs/xid"
)

// EthereumGateway talks to the deployed GigEscrow contract over JSON-RPC.
// Events are polled with eth_getLogs, receipts with eth_getTransactionReceipt.
type EthereumGateway struct {
	*task.Task

	client        *ethclient.Client
	escrowABI     *abi.ABI
	erc20ABI      *abi.ABI
	escrowAddress common.Address
	tokenAddress  common.Address
	chainId       *big.Int

	signerKey     *ecdsa.PrivateKey
	signerAddress common.Address
	submitMtx     sync.Mutex

	gigCache *cache.Cache

	subMtx      sync.Mutex
	subscribers map[string]*ethSubscription
	lastBlock   uint64

	monitor *monitor_escrow.Monitor
}

func NewEthereumGateway(config *config.Config) (self *EthereumGateway) {
	self = new(EthereumGateway)

	self.gigCache = cache.New(config.Contract.GigCacheTTL, config.Contract.GigCacheCleanupInterval)
	self.subscribers = make(map[string]*ethSubscription)
	self.chainId = config.Contract.Chain.ChainId()
	self.escrowAddress = common.HexToAddress(config.Contract.EscrowAddress)
	self.tokenAddress = common.HexToAddress(config.Contract.TokenAddress)

	self.Task = task.NewTask(config, "eth-gateway").
		WithOnBeforeStart(self.connect).
		WithPeriodicSubtaskFunc(config.Contract.EventPollInterval, self.pollEvents).
		WithOnAfterStop(self.disconnect)

	return
}

func (self *EthereumGateway) WithMonitor(monitor *monitor_escrow.Monitor) *EthereumGateway {
	self.monitor = monitor
	return self
}

func (self *EthereumGateway) connect() (err error) {
	self.escrowABI, err = eth.GigEscrowABI()
	if err != nil {
		return
	}
	self.erc20ABI, err = eth.ERC20ABI()
	if err != nil {
		return
	}

	if self.Config.Contract.SignerKey != "" {
		self.signerKey, err = crypto.HexToECDSA(self.Config.Contract.SignerKey)
		if err != nil {
			return fmt.Errorf("bad signer key: %w", err)
		}
		self.signerAddress = crypto.PubkeyToAddress(self.signerKey.PublicKey)
	}

	self.client, err = eth.GetEthClient(self.Log, self.Config.Contract.Chain, self.Config.Contract.RpcUrl)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(self.Ctx, self.Config.Contract.CallTimeout)
	defer cancel()

	// Only events from now on, history belongs to the projection store
	head, err := self.client.BlockNumber(ctx)
	if err != nil {
		return
	}
	self.lastBlock = head

	self.Log.WithField("chain", self.Config.Contract.Chain.String()).
		WithField("escrow", self.escrowAddress.Hex()).
		WithField("block", head).
		Info("Connected to GigEscrow contract")
	return
}

func (self *EthereumGateway) disconnect() {
	self.subMtx.Lock()
	subs := make([]*ethSubscription, 0, len(self.subscribers))
	for _, sub := range self.subscribers {
		subs = append(subs, sub)
	}
	self.subMtx.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}

	if self.client != nil {
		self.client.Close()
	}
}

func (self *EthereumGateway) Address() string {
	if self.signerKey == nil {
		return ""
	}
	return self.signerAddress.Hex()
}

// ---- Reads ----------------------------------------------------------------

func (self *EthereumGateway) call(ctx context.Context, contractABI *abi.ABI, to common.Address, method string, args ...interface{}) (out []interface{}, err error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, &GatewayError{Op: method, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, self.Config.Contract.CallTimeout)
	defer cancel()

	self.monitor.Report.Gateway.State.CallsMade.Add(1)
	result, err := self.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		self.monitor.Report.Gateway.Errors.CallFailures.Add(1)
		return nil, &GatewayError{Op: method, Err: err}
	}

	out, err = contractABI.Unpack(method, result)
	if err != nil {
		return nil, &GatewayError{Op: method, Err: err}
	}
	return
}

func (self *EthereumGateway) GigCount(ctx context.Context) (count uint64, err error) {
	out, err := self.call(ctx, self.escrowABI, self.escrowAddress, "s_gigCounter")
	if err != nil {
		return
	}
	return out[0].(*big.Int).Uint64(), nil
}

type gigTuple struct {
	Client     common.Address
	Freelancer common.Address
	Amount     *big.Int
	RepoOwner  string
	RepoName   string
	PrId       string
	IsOpen     bool
	CreatedAt  *big.Int
}

func (self *EthereumGateway) GigByID(ctx context.Context, gigId uint64) (gig *Gig, err error) {
	cacheKey := strconv.FormatUint(gigId, 10)
	if cached, ok := self.gigCache.Get(cacheKey); ok {
		out := *cached.(*Gig)
		return &out, nil
	}

	count, err := self.GigCount(ctx)
	if err != nil {
		return
	}
	if gigId == 0 || gigId > count {
		return nil, &NotFoundError{GigId: gigId}
	}

	out, err := self.call(ctx, self.escrowABI, self.escrowAddress, "getGig", new(big.Int).SetUint64(gigId))
	if err != nil {
		return
	}
	raw := *abi.ConvertType(out[0], new(gigTuple)).(*gigTuple)

	hasPending, err := self.hasPendingRequest(ctx, gigId)
	if err != nil {
		return
	}

	gig = &Gig{
		Id:         gigId,
		Client:     raw.Client.Hex(),
		Freelancer: raw.Freelancer.Hex(),
		Amount:     raw.Amount,
		RepoOwner:  raw.RepoOwner,
		RepoName:   raw.RepoName,
		PrId:       raw.PrId,
		IsOpen:     raw.IsOpen,
		CreatedAt:  raw.CreatedAt.Int64(),
		Status:     deriveStatus(raw.IsOpen, hasPending),
	}

	self.gigCache.SetDefault(cacheKey, gig)

	copied := *gig
	return &copied, nil
}

func deriveStatus(isOpen, hasPending bool) GigStatus {
	switch {
	case isOpen && hasPending:
		return StatusPending
	case isOpen:
		return StatusLocked
	default:
		// The chain does not distinguish merged from cancelled once closed,
		// the projection store does
		return StatusMerged
	}
}

func (self *EthereumGateway) hasPendingRequest(ctx context.Context, gigId uint64) (hasPending bool, err error) {
	out, err := self.call(ctx, self.escrowABI, self.escrowAddress, "hasPendingRequest", new(big.Int).SetUint64(gigId))
	if err != nil {
		return
	}
	return out[0].(bool), nil
}

func (self *EthereumGateway) TokenBalance(ctx context.Context, account string) (balance *big.Int, err error) {
	out, err := self.call(ctx, self.erc20ABI, self.tokenAddress, "balanceOf", common.HexToAddress(account))
	if err != nil {
		return
	}
	return out[0].(*big.Int), nil
}

func (self *EthereumGateway) TokenAllowance(ctx context.Context, owner string) (allowance *big.Int, err error) {
	out, err := self.call(ctx, self.erc20ABI, self.tokenAddress, "allowance", common.HexToAddress(owner), self.escrowAddress)
	if err != nil {
		return
	}
	return out[0].(*big.Int), nil
}

// ---- Writes ---------------------------------------------------------------

func (self *EthereumGateway) submit(ctx context.Context, contractABI *abi.ABI, to common.Address, method string, args ...interface{}) (handle TxHandle, err error) {
	if self.signerKey == nil {
		return "", &GatewayError{Op: method, Err: fmt.Errorf("no signer key configured")}
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return "", &GatewayError{Op: method, Err: err}
	}

	// One submission at a time, otherwise nonces race
	self.submitMtx.Lock()
	defer self.submitMtx.Unlock()

	ctx, cancel := context.WithTimeout(ctx, self.Config.Contract.CallTimeout)
	defer cancel()

	nonce, err := self.client.PendingNonceAt(ctx, self.signerAddress)
	if err != nil {
		return "", &GatewayError{Op: method, Err: err}
	}
	gasPrice, err := self.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", &GatewayError{Op: method, Err: err}
	}
	gasLimit, err := self.client.EstimateGas(ctx, ethereum.CallMsg{
		From: self.signerAddress,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return "", &GatewayError{Op: method, Err: err}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit + gasLimit/5,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(self.chainId), self.signerKey)
	if err != nil {
		return "", &GatewayError{Op: method, Err: err}
	}

	err = self.client.SendTransaction(ctx, signed)
	if err != nil {
		self.monitor.Report.Gateway.Errors.SubmitFailures.Add(1)
		return "", &GatewayError{Op: method, Err: err}
	}

	self.monitor.Report.Gateway.State.TransactionsSubmitted.Add(1)
	self.Log.WithField("method", method).
		WithField("tx", signed.Hash().Hex()).
		Info("Transaction broadcast")

	return TxHandle(signed.Hash().Hex()), nil
}

func (self *EthereumGateway) SubmitCreateGig(ctx context.Context, freelancer string, amount *big.Int, repoOwner, repoName, prId string) (TxHandle, error) {
	return self.submit(ctx, self.escrowABI, self.escrowAddress, "createGig",
		common.HexToAddress(freelancer), amount, repoOwner, repoName, prId)
}

func (self *EthereumGateway) SubmitVerifyWork(ctx context.Context, gigId uint64) (TxHandle, error) {
	return self.submit(ctx, self.escrowABI, self.escrowAddress, "verifyWork", new(big.Int).SetUint64(gigId))
}

func (self *EthereumGateway) SubmitCancelGig(ctx context.Context, gigId uint64) (TxHandle, error) {
	return self.submit(ctx, self.escrowABI, self.escrowAddress, "cancelGig", new(big.Int).SetUint64(gigId))
}

func (self *EthereumGateway) SubmitApprove(ctx context.Context, amount *big.Int) (TxHandle, error) {
	return self.submit(ctx, self.erc20ABI, self.tokenAddress, "approve", self.escrowAddress, amount)
}

func (self *EthereumGateway) AwaitConfirmation(ctx context.Context, handle TxHandle) (receipt *Receipt, err error) {
	ctx, cancel := context.WithTimeout(ctx, self.Config.Contract.ReceiptTimeout)
	defer cancel()

	hash := common.HexToHash(string(handle))
	ticker := time.NewTicker(self.Config.Contract.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		raw, err := self.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if raw.Status != types.ReceiptStatusSuccessful {
				self.monitor.Report.Gateway.Errors.ConfirmationFailures.Add(1)
				return nil, &TransactionFailedError{Handle: handle}
			}
			// Written state may differ from the cached reads now
			self.gigCache.Flush()
			self.monitor.Report.Gateway.State.TransactionsConfirmed.Add(1)
			return &Receipt{Handle: handle, BlockNumber: raw.BlockNumber.Uint64()}, nil
		}
		if err != ethereum.NotFound {
			self.Log.WithError(err).WithField("tx", handle).Debug("Receipt poll failed, retrying")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, &GatewayError{Op: "awaitConfirmation", Err: ctx.Err()}
		}
	}
}

// ---- Events ---------------------------------------------------------------

type ethSubscription struct {
	id        string
	eventName string
	events    chan Event
	done      chan struct{}
	stopped   chan struct{}
	gateway   *EthereumGateway
	once      sync.Once
}

// Unsubscribe blocks until the delivery goroutine has finished any in-flight
// callback, so callers may safely tear down whatever the callback touches
func (self *ethSubscription) Unsubscribe() {
	self.once.Do(func() {
		self.gateway.subMtx.Lock()
		delete(self.gateway.subscribers, self.id)
		self.gateway.subMtx.Unlock()
		close(self.done)
	})
	<-self.stopped
}

func (self *ethSubscription) run(onEvent func(Event)) {
	defer close(self.stopped)
	for {
		select {
		case event := <-self.events:
			onEvent(event)
		case <-self.done:
			return
		}
	}
}

func (self *EthereumGateway) SubscribeToEvent(eventName string, onEvent func(Event)) (EventSubscription, error) {
	if _, ok := self.escrowABI.Events[eventName]; !ok {
		return nil, &GatewayError{Op: "subscribe", Err: fmt.Errorf("unknown event %s", eventName)}
	}

	sub := &ethSubscription{
		id:        xid.New().String(),
		eventName: eventName,
		events:    make(chan Event, self.Config.Contract.EventChannelSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		gateway:   self,
	}

	self.subMtx.Lock()
	self.subscribers[sub.id] = sub
	self.subMtx.Unlock()

	go sub.run(onEvent)
	return sub, nil
}

// pollEvents fetches new contract logs and fans them out to subscribers in
// block order.
func (self *EthereumGateway) pollEvents() (err error) {
	ctx, cancel := context.WithTimeout(self.Ctx, self.Config.Contract.CallTimeout)
	defer cancel()

	head, err := self.client.BlockNumber(ctx)
	if err != nil {
		self.Log.WithError(err).Warn("Failed to get head block")
		return nil
	}
	if head <= self.lastBlock {
		return nil
	}

	from := self.lastBlock + 1
	to := head
	if batch := uint64(self.Config.Contract.EventPollBatchSize); to-from+1 > batch {
		to = from + batch - 1
	}

	logs, err := self.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{self.escrowAddress},
	})
	if err != nil {
		self.Log.WithError(err).Warn("Failed to fetch contract logs")
		return nil
	}

	for _, vLog := range logs {
		if vLog.Removed {
			continue
		}
		event, decodeErr := self.decodeEvent(vLog)
		if decodeErr != nil {
			self.monitor.Report.Gateway.Errors.EventDecodeFailures.Add(1)
			self.Log.WithError(decodeErr).WithField("tx", vLog.TxHash.Hex()).
				Warn("Failed to decode contract log")
			continue
		}
		self.monitor.Report.Gateway.State.EventsDelivered.Add(1)
		self.dispatch(event)
	}

	self.lastBlock = to
	self.monitor.Report.Gateway.State.LastPolledBlock.Store(int64(to))
	return nil
}

func (self *EthereumGateway) dispatch(event Event) {
	self.subMtx.Lock()
	subs := make([]*ethSubscription, 0, len(self.subscribers))
	for _, sub := range self.subscribers {
		if sub.eventName == event.EventName() {
			subs = append(subs, sub)
		}
	}
	self.subMtx.Unlock()

	for _, sub := range subs {
		select {
		case sub.events <- event:
		case <-sub.done:
		}
	}
}

func (self *EthereumGateway) decodeEvent(vLog types.Log) (event Event, err error) {
	name, eventMap, err := eth.DecodeEventLog(self.escrowABI, vLog)
	if err != nil {
		return
	}

	gigId := func() uint64 { return eventMap["gigId"].(*big.Int).Uint64() }
	address := func(key string) string { return eventMap[key].(common.Address).Hex() }
	amount := func() *big.Int { return eventMap["amount"].(*big.Int) }
	requestId := func() string {
		id := eventMap["requestId"].([32]byte)
		return common.BytesToHash(id[:]).Hex()
	}

	switch name {
	case EventGigCreated:
		event = &GigCreatedEvent{
			GigId:      gigId(),
			Client:     address("client"),
			Freelancer: address("freelancer"),
			Amount:     amount(),
			RepoOwner:  eventMap["repoOwner"].(string),
			RepoName:   eventMap["repoName"].(string),
			PrId:       eventMap["prId"].(string),
		}
	case EventGigCancelled:
		event = &GigCancelledEvent{GigId: gigId(), Client: address("client"), Amount: amount()}
	case EventGigFunded:
		event = &GigFundedEvent{GigId: gigId(), Amount: amount()}
	case EventWorkVerificationRequested:
		event = &WorkVerificationRequestedEvent{GigId: gigId(), RequestId: requestId(), Requester: address("requester")}
	case EventWorkVerified:
		event = &WorkVerifiedEvent{GigId: gigId(), RequestId: requestId(), IsMerged: eventMap["isMerged"].(bool)}
	case EventPaymentReleased:
		event = &PaymentReleasedEvent{GigId: gigId(), Freelancer: address("freelancer"), Amount: amount()}
	default:
		err = fmt.Errorf("unhandled event %s", name)
	}
	return
}
