// Package terminal is the bounded, append-only log narrating the client's
// actions for the dashboard. It is not authoritative state.
package terminal

import (
	"sync"
	"time"

	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/config"
	"github.com/SuyashAlphaC/trustless-gig-escrow/src/utils/logger"

	"github.com/gammazero/deque"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

type EntryType string

const (
	Info    EntryType = "info"
	Success EntryType = "success"
	Error   EntryType = "error"
	Warning EntryType = "warning"
	Command EntryType = "command"
)

type Entry struct {
	Id        string    `json:"id"`
	Timestamp int64     `json:"timestamp"`
	Type      EntryType `json:"type"`
	Message   string    `json:"message"`
	Prefix    string    `json:"prefix,omitempty"`
}

// Terminal keeps the most recent entries, oldest evicted first once the
// configured capacity is exceeded.
type Terminal struct {
	Config *config.Config
	Log    *logrus.Entry

	mtx            sync.RWMutex
	entries        deque.Deque[*Entry]
	subscribers    map[string]chan *Entry
	subscriberSize int
}

func NewTerminal(config *config.Config) (self *Terminal) {
	self = new(Terminal)
	self.Config = config
	self.Log = logger.NewSublogger("terminal")
	self.subscribers = make(map[string]chan *Entry)
	self.subscriberSize = config.Terminal.SubscriberChannelSize

	self.append(Info, "Trustless Gig Escrow v1.0.0", "system")
	self.append(Info, "Initializing gateway connection...", "web3")

	return
}

func (self *Terminal) AddLog(entryType EntryType, message, prefix string) {
	self.mtx.Lock()
	entry := self.appendLocked(entryType, message, prefix)
	self.mtx.Unlock()

	self.notify(entry)
}

func (self *Terminal) append(entryType EntryType, message, prefix string) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.appendLocked(entryType, message, prefix)
}

func (self *Terminal) appendLocked(entryType EntryType, message, prefix string) *Entry {
	entry := &Entry{
		Id:        xid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Type:      entryType,
		Message:   message,
		Prefix:    prefix,
	}

	self.entries.PushBack(entry)
	for self.entries.Len() > self.Config.Terminal.Capacity {
		self.entries.PopFront()
	}
	return entry
}

// Logs returns a copy of the retained entries, oldest first
func (self *Terminal) Logs() []*Entry {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out := make([]*Entry, 0, self.entries.Len())
	for i := 0; i < self.entries.Len(); i++ {
		out = append(out, self.entries.At(i))
	}
	return out
}

// Clear resets the sink to a single informational entry
func (self *Terminal) Clear() {
	self.mtx.Lock()
	self.entries.Clear()
	entry := self.appendLocked(Info, "Terminal cleared", "system")
	self.mtx.Unlock()

	self.notify(entry)
}

type Subscription struct {
	C <-chan *Entry

	id       string
	terminal *Terminal
}

func (self *Subscription) Unsubscribe() {
	self.terminal.mtx.Lock()
	defer self.terminal.mtx.Unlock()

	if ch, ok := self.terminal.subscribers[self.id]; ok {
		delete(self.terminal.subscribers, self.id)
		close(ch)
	}
}

// Subscribe delivers every new entry to the returned channel. Slow consumers
// lose entries instead of blocking the writer.
func (self *Terminal) Subscribe() *Subscription {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	id := xid.New().String()
	ch := make(chan *Entry, self.subscriberSize)
	self.subscribers[id] = ch

	return &Subscription{C: ch, id: id, terminal: self}
}

func (self *Terminal) notify(entry *Entry) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	for _, ch := range self.subscribers {
		select {
		case ch <- entry:
		default:
			// Subscriber not keeping up
		}
	}
}
