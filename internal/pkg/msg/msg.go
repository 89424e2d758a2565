package msg

import (
	"sync"

	"github.com/google/uuid"
)

// Topic is the subject of a message.
type Topic int

const (
	// Result messages carry a network.CalculationResult.
	Result Topic = iota
	// Failure messages carry the error of a rejected calculation.
	Failure
)

func (t Topic) String() string {
	switch t {
	case Result:
		return "result"
	case Failure:
		return "failure"
	}
	return "unknown"
}

// Publisher is an interface for objects that allow subscribtion to their events
type Publisher interface {
	Subscribe(uuid.UUID, Topic) <-chan Msg
	Unsubscribe(uuid.UUID)
}

// Msg is a single published event.
type Msg struct {
	sender  uuid.UUID
	topic   Topic
	payload interface{}
}

// New is the Msg factory function
func New(sender uuid.UUID, topic Topic, payload interface{}) Msg {
	return Msg{sender, topic, payload}
}

// PID returns the sender's PID
func (v Msg) PID() uuid.UUID {
	return v.sender
}

// Topic returns the message subject
func (v Msg) Topic() Topic {
	return v.topic
}

// Payload returns the message data
func (v Msg) Payload() interface{} {
	return v.payload
}

// Inbox is the buffer size of every subscription channel.
const Inbox = 50

// PubSub fans published messages out to subscribers. A subscriber whose inbox is full
// misses the message rather than stalling the publisher.
type PubSub struct {
	mux         *sync.Mutex
	pid         uuid.UUID
	subscribers map[Topic]map[uuid.UUID]chan Msg
	closed      bool
}

// NewPublisher returns a PubSub sending on behalf of pid.
func NewPublisher(pid uuid.UUID) *PubSub {
	return &PubSub{
		mux:         &sync.Mutex{},
		pid:         pid,
		subscribers: make(map[Topic]map[uuid.UUID]chan Msg),
	}
}

// PID is the publisher's process id.
func (p *PubSub) PID() uuid.UUID {
	return p.pid
}

// Subscribe returns a channel receiving every message of a topic. Subscribing twice
// to the same topic returns the existing channel.
func (p *PubSub) Subscribe(pid uuid.UUID, topic Topic) <-chan Msg {
	p.mux.Lock()
	defer p.mux.Unlock()

	ch := make(chan Msg, Inbox)
	if p.closed {
		close(ch)
		return ch
	}

	subs, ok := p.subscribers[topic]
	if !ok {
		subs = make(map[uuid.UUID]chan Msg)
		p.subscribers[topic] = subs
	}
	if existing, ok := subs[pid]; ok {
		return existing
	}
	subs[pid] = ch
	return ch
}

// Unsubscribe closes every channel held by pid.
func (p *PubSub) Unsubscribe(pid uuid.UUID) {
	p.mux.Lock()
	defer p.mux.Unlock()
	for _, subs := range p.subscribers {
		if ch, ok := subs[pid]; ok {
			close(ch)
			delete(subs, pid)
		}
	}
}

// Publish sends payload to the subscribers of topic.
func (p *PubSub) Publish(topic Topic, payload interface{}) {
	p.mux.Lock()
	defer p.mux.Unlock()
	if p.closed {
		return
	}

	m := New(p.pid, topic, payload)
	for _, ch := range p.subscribers[topic] {
		select {
		case ch <- m:
		default:
		}
	}
}

// Close unsubscribes everyone. Later subscriptions receive a closed channel.
func (p *PubSub) Close() {
	p.mux.Lock()
	defer p.mux.Unlock()
	for _, subs := range p.subscribers {
		for pid, ch := range subs {
			close(ch)
			delete(subs, pid)
		}
	}
	p.closed = true
}
