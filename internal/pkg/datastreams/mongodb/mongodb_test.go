package mongodb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"go.mongodb.org/mongo-driver/bson"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"
	"gotest.tools/v3/poll"
)

type memoryStore struct {
	mux      sync.Mutex
	archived []bson.D
	latest   map[string]bson.D
	err      error
}

func (s *memoryStore) archive(_ context.Context, doc bson.D) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.err != nil {
		return s.err
	}
	s.archived = append(s.archived, doc)
	return nil
}

func (s *memoryStore) upsertLatest(_ context.Context, scenario string, doc bson.D) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.latest[scenario] = doc
	return nil
}

func (s *memoryStore) count() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.archived)
}

func testResult() network.CalculationResult {
	return network.CalculationResult{
		Scenario: network.Mixed,
		Cables: []network.CableResult{{
			Cable:              network.Cable{ID: "k1", TypeID: "baxb-95"},
			CurrentA:           14.4,
			VoltageDropPercent: 2.5,
			Compliance:         network.Compliant,
			DistalNodeID:       "n1",
		}},
		GlobalLossesKW:        0.012,
		MaxVoltageDropPercent: 2.5,
		Compliance:            network.Compliant,
	}
}

func newHandler(t *testing.T) (Handler, *msg.PubSub) {
	dir := fs.NewDir(t, "mongodb", fs.WithFile("config.json",
		`{"URI": "mongodb://localhost", "Database": "lvnet", "Port": "27017"}`))
	pub := msg.NewPublisher(uuid.New())
	h, err := New(dir.Join("config.json"), pub, nil)
	assert.NilError(t, err)
	return h, pub
}

func TestNew(t *testing.T) {
	h, _ := newHandler(t)
	assert.Equal(t, h.config.Database, "lvnet")
	assert.Equal(t, h.URI(), "mongodb://localhost:27017")

	dir := fs.NewDir(t, "mongodb", fs.WithFile("config.json", `{"Port": "27017"}`))
	_, err := New(dir.Join("config.json"), msg.NewPublisher(uuid.New()), nil)
	assert.ErrorContains(t, err, "URI and Database are required")
}

func TestResultToBSON(t *testing.T) {
	pid := uuid.New()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := resultToBSON(pid, at, testResult())

	m := doc.Map()
	assert.Equal(t, m["pid"], pid.String())
	assert.Equal(t, m["scenario"], "mixed")
	assert.Equal(t, m["computedAt"], at)
	assert.Equal(t, m["compliance"], "compliant")

	cables := m["cables"].(bson.A)
	assert.Equal(t, len(cables), 1)
	cable := cables[0].(bson.D).Map()
	assert.Equal(t, cable["cableId"], "k1")
	assert.Equal(t, cable["distalNodeId"], "n1")
	assert.Equal(t, cable["current_A"], 14.4)
}

func TestRunArchivesResults(t *testing.T) {
	h, pub := newHandler(t)
	s := &memoryStore{latest: map[string]bson.D{}}

	done := make(chan struct{})
	go func() {
		h.run(s)
		close(done)
	}()

	pub.Publish(msg.Result, testResult())
	pub.Publish(msg.Result, testResult())
	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if s.count() == 2 {
			return poll.Success()
		}
		return poll.Continue("archived %d results", s.count())
	}, poll.WithTimeout(time.Second))

	h.Stop()
	<-done

	s.mux.Lock()
	defer s.mux.Unlock()
	assert.Equal(t, len(s.latest), 1)
	assert.Equal(t, s.latest["mixed"].Map()["pid"], pub.PID().String())
}

func TestHandleIgnoresOtherPayloads(t *testing.T) {
	h, _ := newHandler(t)
	s := &memoryStore{latest: map[string]bson.D{}, err: errors.New("unreachable")}

	assert.NilError(t, h.handle(s, msg.New(uuid.New(), msg.Failure, errors.New("no source"))))
	assert.ErrorContains(t, h.handle(s, msg.New(uuid.New(), msg.Result, testResult())), "unreachable")
}
