package natshandler

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"
	"gotest.tools/v3/poll"

	nats "github.com/nats-io/nats.go"
)

type recorder struct {
	mux      sync.Mutex
	subjects []string
	data     [][]byte
}

func (r *recorder) Publish(subject string, data []byte) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.subjects = append(r.subjects, subject)
	r.data = append(r.data, data)
	return nil
}

func (r *recorder) published() []string {
	r.mux.Lock()
	defer r.mux.Unlock()
	return append([]string(nil), r.subjects...)
}

func newHandler(t *testing.T, content string) (Handler, *msg.PubSub) {
	dir := fs.NewDir(t, "nats", fs.WithFile("config.json", content))
	pub := msg.NewPublisher(uuid.New())
	h, err := New(dir.Join("config.json"), pub, nil)
	assert.NilError(t, err)
	return h, pub
}

func TestNewDefaults(t *testing.T) {
	h, _ := newHandler(t, `{}`)
	assert.Equal(t, h.config.Server, nats.DefaultURL)
	assert.Equal(t, h.config.Subject, DefaultSubject)

	h, _ = newHandler(t, `{"Server": "nats://broker:4222", "Subject": "grid.lv"}`)
	assert.Equal(t, h.config.Server, "nats://broker:4222")
	assert.Equal(t, h.resultSubject(network.Injection), "grid.lv.results.production")
	assert.Equal(t, h.alertSubject(network.Critical), "grid.lv.alerts.critical")
}

func TestHandle(t *testing.T) {
	h, _ := newHandler(t, `{}`)
	r := &recorder{}

	res := network.CalculationResult{Scenario: network.Withdrawal, MaxVoltageDropPercent: 9.1, Compliance: network.Warning}
	assert.NilError(t, h.handle(r, msg.New(uuid.New(), msg.Result, res)))
	assert.DeepEqual(t, r.published(), []string{"lvnet.results.withdrawal", "lvnet.alerts.warning"})

	var decoded network.CalculationResult
	assert.NilError(t, json.Unmarshal(r.data[0], &decoded))
	assert.Equal(t, decoded.MaxVoltageDropPercent, 9.1)

	sender := uuid.New()
	assert.NilError(t, h.handle(r, msg.New(sender, msg.Failure, network.ErrSourceCount)))
	var f failure
	assert.NilError(t, json.Unmarshal(r.data[2], &f))
	assert.Equal(t, r.subjects[2], "lvnet.failures")
	assert.Equal(t, f.PID, sender.String())
	assert.Equal(t, f.Error, network.ErrSourceCount.Error())
}

func TestRunForwardsPublishedMessages(t *testing.T) {
	h, pub := newHandler(t, `{}`)
	r := &recorder{}

	done := make(chan struct{})
	go func() {
		h.run(r)
		close(done)
	}()

	pub.Publish(msg.Result, network.CalculationResult{Scenario: network.Mixed, Compliance: network.Compliant})
	pub.Publish(msg.Failure, errors.New("unknown cable type"))
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if len(r.published()) == 2 {
			return poll.Success()
		}
		return poll.Continue("published %v", r.published())
	}, poll.WithTimeout(time.Second))

	h.Stop()
	<-done
}

func TestRedirectReturnsOnStopWhenInboxIsFull(t *testing.T) {
	in := make(chan msg.Msg, 1)
	out := make(chan msg.Msg)
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		redirectMsg(in, out, stop)
		close(done)
	}()

	in <- msg.New(uuid.New(), msg.Result, nil)
	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("redirect still blocked after stop")
	}
}

func TestNatsConnector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping TestNatsConnector in short mode")
	}
	nc, err := nats.Connect(nats.DefaultURL)
	if err != nil {
		t.Skipf("no nats server: %v", err)
	}
	defer nc.Close()

	h, _ := newHandler(t, `{}`)
	received := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe("lvnet.results.>", received)
	assert.NilError(t, err)
	defer sub.Unsubscribe()

	res := network.CalculationResult{Scenario: network.Mixed, Compliance: network.Compliant}
	assert.NilError(t, h.handle(nc, msg.New(uuid.New(), msg.Result, res)))
	select {
	case m := <-received:
		assert.Equal(t, m.Subject, "lvnet.results.mixed")
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
