package natshandler

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/ohowland/lvnet/internal/pkg/logging"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"go.uber.org/zap"

	nats "github.com/nats-io/nats.go"
)

// DefaultSubject prefixes every subject when none is configured.
const DefaultSubject = "lvnet"

// Handler forwards calculation results and rejections to a NATS server. Results go to
// <subject>.results.<scenario>; non-compliant results are repeated on
// <subject>.alerts.<band> and rejections on <subject>.failures.
type Handler struct {
	mux    *sync.Mutex
	inbox  <-chan msg.Msg
	pid    uuid.UUID
	config config
	logger *zap.Logger
	system msg.Publisher
	stop   chan struct{}
	once   *sync.Once
}

type config struct {
	Server  string `json:"Server"`
	Subject string `json:"Subject"`
	Name    string `json:"Name"`
}

type publisher interface {
	Publish(subject string, data []byte) error
}

type failure struct {
	PID   string `json:"pid"`
	Error string `json:"error"`
}

func (h Handler) PID() uuid.UUID {
	return h.pid
}

func redirectMsg(chIn <-chan msg.Msg, chOut chan<- msg.Msg, stop <-chan struct{}) {
	for m := range chIn {
		select {
		case chOut <- m:
		case <-stop:
			return
		}
	}
}

// New reads the handler configuration and subscribes to results and failures.
func New(configPath string, system msg.Publisher, logger *zap.Logger) (Handler, error) {
	jsonConfig, err := os.ReadFile(configPath)
	if err != nil {
		return Handler{}, err
	}
	cfg := config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return Handler{}, err
	}
	if cfg.Server == "" {
		cfg.Server = nats.DefaultURL
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}

	pid, err := uuid.NewUUID()
	if err != nil {
		return Handler{}, err
	}

	inbox := make(chan msg.Msg, msg.Inbox)
	stop := make(chan struct{})
	go redirectMsg(system.Subscribe(pid, msg.Result), inbox, stop)
	go redirectMsg(system.Subscribe(pid, msg.Failure), inbox, stop)

	return Handler{
		mux:    &sync.Mutex{},
		inbox:  inbox,
		pid:    pid,
		config: cfg,
		logger: logging.OrNop(logger).Named("nats"),
		system: system,
		stop:   stop,
		once:   &sync.Once{},
	}, nil
}

// Stop ends Process and drops the subscriptions.
func (h Handler) Stop() {
	h.once.Do(func() {
		h.system.Unsubscribe(h.pid)
		close(h.stop)
	})
}

// Process connects to the server and forwards messages until stopped.
func (h Handler) Process() error {
	opts := []nats.Option{
		nats.Name(h.config.Name),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			h.logger.Warn("disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			h.logger.Info("reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(h.config.Server, opts...)
	if err != nil {
		return fmt.Errorf("connect %s: %w", h.config.Server, err)
	}
	defer nc.Close()

	h.logger.Info("process started", zap.String("server", h.config.Server))
	h.run(nc)
	if err := nc.Flush(); err != nil {
		h.logger.Warn("flush on shutdown", zap.Error(err))
	}
	h.logger.Info("process shutdown")
	return nil
}

func (h Handler) run(p publisher) {
	for {
		select {
		case m := <-h.inbox:
			if err := h.handle(p, m); err != nil {
				h.logger.Error("unable to publish to nats server", zap.Error(err))
			}
		case <-h.stop:
			return
		}
	}
}

func (h Handler) handle(p publisher, m msg.Msg) error {
	h.mux.Lock()
	defer h.mux.Unlock()

	switch payload := m.Payload().(type) {
	case network.CalculationResult:
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := p.Publish(h.resultSubject(payload.Scenario), data); err != nil {
			return err
		}
		if payload.Compliance != network.Compliant {
			return p.Publish(h.alertSubject(payload.Compliance), data)
		}
	case error:
		data, err := json.Marshal(failure{PID: m.PID().String(), Error: payload.Error()})
		if err != nil {
			return err
		}
		return p.Publish(h.config.Subject+".failures", data)
	}
	return nil
}

func (h Handler) resultSubject(s network.Scenario) string {
	return h.config.Subject + ".results." + s.String()
}

func (h Handler) alertSubject(c network.Compliance) string {
	return h.config.Subject + ".alerts." + string(c)
}
