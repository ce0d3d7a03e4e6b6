package escrow

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/logger"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

const demoAddress = "0x742d35Cc6634C0532925a3b844Bc9e7595f8fE00"

// MemoryGateway simulates the GigEscrow contract in process. Used in demo
// mode and in tests, where broadcasting real transactions is not an option.
type MemoryGateway struct {
	Config *config.Config
	Log    *logrus.Entry

	// AutoFulfill makes every verification request resolve as merged after
	// FulfillDelay, imitating the oracle round trip. Tests turn it off and
	// emit events by hand.
	AutoFulfill  bool
	FulfillDelay time.Duration

	mtx         sync.Mutex
	gigs        map[uint64]*Gig
	gigCount    uint64
	pending     map[uint64]bool
	balance     *big.Int
	allowance   *big.Int
	receipts    map[TxHandle]*Receipt
	blockNumber uint64
	subscribers map[string]*memorySubscription
	closed      bool
}

func NewMemoryGateway(config *config.Config) (self *MemoryGateway) {
	self = new(MemoryGateway)
	self.Config = config
	self.Log = logger.NewSublogger("memory-gateway")
	self.FulfillDelay = 2 * time.Second

	self.gigs = make(map[uint64]*Gig)
	self.pending = make(map[uint64]bool)
	self.receipts = make(map[TxHandle]*Receipt)
	self.subscribers = make(map[string]*memorySubscription)

	// 10000 MNEE, allowance unbounded
	self.balance, _ = new(big.Int).SetString("10000000000000000000000", 10)
	self.allowance = new(big.Int).Lsh(big.NewInt(1), 255)

	self.seed()
	return
}

func (self *MemoryGateway) seed() {
	now := time.Now().Unix()
	amount := func(s string) *big.Int {
		v, _ := new(big.Int).SetString(s, 10)
		return v
	}

	self.gigs[1] = &Gig{
		Id:         1,
		Client:     demoAddress,
		Freelancer: "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		Amount:     amount("1000000000000000000000"),
		RepoOwner:  "ethereum",
		RepoName:   "go-ethereum",
		PrId:       "28547",
		IsOpen:     true,
		CreatedAt:  now - 86400,
		Status:     StatusLocked,
	}
	self.gigs[2] = &Gig{
		Id:         2,
		Client:     "0x1234567890123456789012345678901234567890",
		Freelancer: "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd",
		Amount:     amount("500000000000000000000"),
		RepoOwner:  "vercel",
		RepoName:   "next.js",
		PrId:       "12345",
		IsOpen:     true,
		CreatedAt:  now - 172800,
		Status:     StatusPending,
	}
	self.gigs[3] = &Gig{
		Id:         3,
		Client:     "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		Freelancer: "0xcafebabecafebabecafebabecafebabecafebabe",
		Amount:     amount("2500000000000000000000"),
		RepoOwner:  "chainlink",
		RepoName:   "chainlink",
		PrId:       "9876",
		IsOpen:     false,
		CreatedAt:  now - 604800,
		Status:     StatusMerged,
	}
	self.pending[2] = true
	self.gigCount = 3
}

func (self *MemoryGateway) Address() string {
	return demoAddress
}

func (self *MemoryGateway) GigCount(ctx context.Context) (uint64, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.gigCount, nil
}

func (self *MemoryGateway) GigByID(ctx context.Context, gigId uint64) (*Gig, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	gig, ok := self.gigs[gigId]
	if !ok {
		return nil, &NotFoundError{GigId: gigId}
	}
	out := *gig
	return &out, nil
}

func (self *MemoryGateway) SubmitCreateGig(ctx context.Context, freelancer string, amount *big.Int, repoOwner, repoName, prId string) (TxHandle, error) {
	self.mtx.Lock()

	// The real token reverts the escrow transfer when funds are short
	if self.balance.Cmp(amount) < 0 {
		self.mtx.Unlock()
		return "", &GatewayError{Op: "createGig", Err: fmt.Errorf("transfer amount exceeds balance")}
	}

	self.gigCount += 1
	gig := &Gig{
		Id:         self.gigCount,
		Client:     demoAddress,
		Freelancer: freelancer,
		Amount:     new(big.Int).Set(amount),
		RepoOwner:  repoOwner,
		RepoName:   repoName,
		PrId:       prId,
		IsOpen:     true,
		CreatedAt:  time.Now().Unix(),
		Status:     StatusLocked,
	}
	self.gigs[gig.Id] = gig
	self.balance.Sub(self.balance, amount)
	handle := self.mineLocked()

	self.mtx.Unlock()

	self.EmitEvent(&GigCreatedEvent{
		GigId:      gig.Id,
		Client:     gig.Client,
		Freelancer: gig.Freelancer,
		Amount:     new(big.Int).Set(gig.Amount),
		RepoOwner:  gig.RepoOwner,
		RepoName:   gig.RepoName,
		PrId:       gig.PrId,
	})
	self.EmitEvent(&GigFundedEvent{GigId: gig.Id, Amount: new(big.Int).Set(gig.Amount)})
	return handle, nil
}

func (self *MemoryGateway) SubmitVerifyWork(ctx context.Context, gigId uint64) (TxHandle, error) {
	self.mtx.Lock()

	gig, ok := self.gigs[gigId]
	if !ok {
		self.mtx.Unlock()
		return "", &GatewayError{Op: "verifyWork", Err: &NotFoundError{GigId: gigId}}
	}
	if !gig.IsOpen {
		self.mtx.Unlock()
		return "", &GatewayError{Op: "verifyWork", Err: fmt.Errorf("gig %d is not open", gigId)}
	}
	if self.pending[gigId] {
		self.mtx.Unlock()
		return "", &GatewayError{Op: "verifyWork", Err: fmt.Errorf("gig %d already has a pending request", gigId)}
	}

	self.pending[gigId] = true
	gig.Status = StatusPending
	requestId := xid.New().String()
	handle := self.mineLocked()
	autoFulfill := self.AutoFulfill
	delay := self.FulfillDelay

	self.mtx.Unlock()

	self.EmitEvent(&WorkVerificationRequestedEvent{
		GigId:     gigId,
		RequestId: requestId,
		Requester: demoAddress,
	})

	if autoFulfill {
		time.AfterFunc(delay, func() { self.fulfill(gigId, requestId) })
	}
	return handle, nil
}

// fulfill plays the oracle: the PR is always merged in demo mode
func (self *MemoryGateway) fulfill(gigId uint64, requestId string) {
	self.mtx.Lock()

	gig, ok := self.gigs[gigId]
	if !ok || !gig.IsOpen {
		self.mtx.Unlock()
		return
	}
	delete(self.pending, gigId)
	gig.IsOpen = false
	gig.Status = StatusMerged
	self.balance.Add(self.balance, gig.Amount)
	freelancer := gig.Freelancer
	amount := new(big.Int).Set(gig.Amount)

	self.mtx.Unlock()

	self.EmitEvent(&WorkVerifiedEvent{GigId: gigId, RequestId: requestId, IsMerged: true})
	self.EmitEvent(&PaymentReleasedEvent{GigId: gigId, Freelancer: freelancer, Amount: amount})
}

func (self *MemoryGateway) SubmitCancelGig(ctx context.Context, gigId uint64) (TxHandle, error) {
	self.mtx.Lock()

	gig, ok := self.gigs[gigId]
	if !ok {
		self.mtx.Unlock()
		return "", &GatewayError{Op: "cancelGig", Err: &NotFoundError{GigId: gigId}}
	}
	if !gig.IsOpen {
		self.mtx.Unlock()
		return "", &GatewayError{Op: "cancelGig", Err: fmt.Errorf("gig %d is not open", gigId)}
	}

	delete(self.pending, gigId)
	gig.IsOpen = false
	gig.Status = StatusCancelled
	self.balance.Add(self.balance, gig.Amount)
	client := gig.Client
	amount := new(big.Int).Set(gig.Amount)
	handle := self.mineLocked()

	self.mtx.Unlock()

	self.EmitEvent(&GigCancelledEvent{GigId: gigId, Client: client, Amount: amount})
	return handle, nil
}

func (self *MemoryGateway) AwaitConfirmation(ctx context.Context, handle TxHandle) (*Receipt, error) {
	self.mtx.Lock()
	receipt, ok := self.receipts[handle]
	self.mtx.Unlock()

	if !ok {
		return nil, &GatewayError{Op: "awaitConfirmation", Err: fmt.Errorf("unknown transaction %s", handle)}
	}

	// Simulated inclusion latency
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return receipt, nil
}

func (self *MemoryGateway) TokenBalance(ctx context.Context, account string) (*big.Int, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return new(big.Int).Set(self.balance), nil
}

func (self *MemoryGateway) TokenAllowance(ctx context.Context, owner string) (*big.Int, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return new(big.Int).Set(self.allowance), nil
}

func (self *MemoryGateway) SubmitApprove(ctx context.Context, amount *big.Int) (TxHandle, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.allowance = new(big.Int).Set(amount)
	return self.mineLocked(), nil
}

func (self *MemoryGateway) mineLocked() TxHandle {
	self.blockNumber += 1
	handle := TxHandle(fmt.Sprintf("0x%s%024d", xid.New().String(), self.blockNumber))
	self.receipts[handle] = &Receipt{Handle: handle, BlockNumber: self.blockNumber}
	return handle
}

type memorySubscription struct {
	id        string
	eventName string
	events    chan Event
	done      chan struct{}
	stopped   chan struct{}
	gateway   *MemoryGateway
	once      sync.Once
}

// Unsubscribe blocks until the delivery goroutine has finished any in-flight
// callback, so callers may safely tear down whatever the callback touches
func (self *memorySubscription) Unsubscribe() {
	self.once.Do(func() {
		self.gateway.mtx.Lock()
		delete(self.gateway.subscribers, self.id)
		self.gateway.mtx.Unlock()
		close(self.done)
	})
	<-self.stopped
}

func (self *memorySubscription) run(onEvent func(Event)) {
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

func (self *MemoryGateway) SubscribeToEvent(eventName string, onEvent func(Event)) (EventSubscription, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.closed {
		return nil, &GatewayError{Op: "subscribe", Err: fmt.Errorf("gateway closed")}
	}

	sub := &memorySubscription{
		id:        xid.New().String(),
		eventName: eventName,
		events:    make(chan Event, self.Config.Contract.EventChannelSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		gateway:   self,
	}
	self.subscribers[sub.id] = sub
	go sub.run(onEvent)

	return sub, nil
}

// EmitEvent delivers an event to every matching subscriber. Exported so tests
// can inject oracle outcomes directly.
func (self *MemoryGateway) EmitEvent(event Event) {
	self.mtx.Lock()
	subs := make([]*memorySubscription, 0, len(self.subscribers))
	for _, sub := range self.subscribers {
		if sub.eventName == event.EventName() {
			subs = append(subs, sub)
		}
	}
	self.mtx.Unlock()

	for _, sub := range subs {
		select {
		case sub.events <- event:
		case <-sub.done:
		}
	}
}

// Close drops all subscriptions
func (self *MemoryGateway) Close() {
	self.mtx.Lock()
	subs := make([]*memorySubscription, 0, len(self.subscribers))
	for _, sub := range self.subscribers {
		subs = append(subs, sub)
	}
	self.closed = true
	self.mtx.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
