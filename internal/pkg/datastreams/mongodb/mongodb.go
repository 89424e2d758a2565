package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/lvnet/internal/pkg/logging"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	calculationsCollection = "calculations"
	latestCollection       = "latest"
	writeTimeout           = 5 * time.Second
)

// Handler archives every published calculation result in MongoDB.
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
	URI      string `json:"URI"`
	Database string `json:"Database"`
	Port     string `json:"Port"`
}

// store is the subset of a collection pair the handler writes to.
type store interface {
	archive(ctx context.Context, doc bson.D) error
	upsertLatest(ctx context.Context, scenario string, doc bson.D) error
}

// New reads the handler configuration and subscribes to results.
func New(configPath string, system msg.Publisher, logger *zap.Logger) (Handler, error) {
	jsonConfig, err := os.ReadFile(configPath)
	if err != nil {
		return Handler{}, err
	}
	cfg := config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return Handler{}, err
	}
	if cfg.URI == "" || cfg.Database == "" {
		return Handler{}, fmt.Errorf("%s: URI and Database are required", configPath)
	}

	pid, err := uuid.NewUUID()
	if err != nil {
		return Handler{}, err
	}

	return Handler{
		mux:    &sync.Mutex{},
		inbox:  system.Subscribe(pid, msg.Result),
		pid:    pid,
		config: cfg,
		logger: logging.OrNop(logger).Named("mongodb"),
		system: system,
		stop:   make(chan struct{}),
		once:   &sync.Once{},
	}, nil
}

// PID is the handler's subscriber id.
func (h Handler) PID() uuid.UUID {
	return h.pid
}

// URI is the server address the handler connects to.
func (h Handler) URI() string {
	if h.config.Port == "" {
		return h.config.URI
	}
	return h.config.URI + ":" + h.config.Port
}

// Stop ends Process and drops the subscription.
func (h Handler) Stop() {
	h.once.Do(func() {
		h.system.Unsubscribe(h.pid)
		close(h.stop)
	})
}

// Process connects to the server and archives results until stopped.
func (h Handler) Process() error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(h.URI()))
	cancel()
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(h.config.Database)
	h.logger.Info("process started", zap.String("uri", h.URI()), zap.String("database", h.config.Database))
	h.run(collections{
		calculations: db.Collection(calculationsCollection),
		latest:       db.Collection(latestCollection),
	})
	h.logger.Info("process shutdown")
	return nil
}

func (h Handler) run(s store) {
	for {
		select {
		case m, ok := <-h.inbox:
			if !ok {
				return
			}
			if err := h.handle(s, m); err != nil {
				h.logger.Error("archive result", zap.Error(err))
			}
		case <-h.stop:
			return
		}
	}
}

func (h Handler) handle(s store, m msg.Msg) error {
	res, ok := m.Payload().(network.CalculationResult)
	if !ok || m.Topic() != msg.Result {
		return nil
	}

	h.mux.Lock()
	defer h.mux.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	doc := resultToBSON(m.PID(), time.Now().UTC(), res)
	if err := s.archive(ctx, doc); err != nil {
		return err
	}
	return s.upsertLatest(ctx, res.Scenario.String(), doc)
}

type collections struct {
	calculations *mongo.Collection
	latest       *mongo.Collection
}

func (c collections) archive(ctx context.Context, doc bson.D) error {
	_, err := c.calculations.InsertOne(ctx, doc)
	return err
}

func (c collections) upsertLatest(ctx context.Context, scenario string, doc bson.D) error {
	_, err := c.latest.UpdateOne(ctx,
		bson.M{"scenario": scenario},
		bson.D{{Key: "$set", Value: doc}},
		options.Update().SetUpsert(true),
	)
	return err
}

func resultToBSON(sender uuid.UUID, at time.Time, res network.CalculationResult) bson.D {
	cables := make(bson.A, 0, len(res.Cables))
	for _, c := range res.Cables {
		cables = append(cables, bson.D{
			{Key: "cableId", Value: c.ID},
			{Key: "typeId", Value: c.TypeID},
			{Key: "distalNodeId", Value: c.DistalNodeID},
			{Key: "current_A", Value: c.CurrentA},
			{Key: "voltageDrop_V", Value: c.VoltageDropV},
			{Key: "voltageDropPercent", Value: c.VoltageDropPercent},
			{Key: "losses_kW", Value: c.LossesKW},
			{Key: "compliance", Value: string(c.Compliance)},
			{Key: "approximate", Value: c.Approximate},
		})
	}

	return bson.D{
		{Key: "pid", Value: sender.String()},
		{Key: "computedAt", Value: at},
		{Key: "scenario", Value: res.Scenario.String()},
		{Key: "totalLoads_kVA", Value: res.TotalLoadsKVA},
		{Key: "totalProductions_kVA", Value: res.TotalProductionsKVA},
		{Key: "globalLosses_kW", Value: res.GlobalLossesKW},
		{Key: "maxVoltageDropPercent", Value: res.MaxVoltageDropPercent},
		{Key: "compliance", Value: string(res.Compliance)},
		{Key: "cables", Value: cables},
	}
}
