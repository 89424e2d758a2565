package web

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/ohowland/lvnet/internal/pkg/engine"
	"github.com/ohowland/lvnet/internal/pkg/msg"
	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/project"
	"github.com/ohowland/lvnet/internal/pkg/webservice"
	"gotest.tools/v3/assert"
)

func newServer(t *testing.T) *httptest.Server {
	e, err := engine.New(engine.DefaultConfig())
	assert.NilError(t, err)
	app := &webservice.App{Engine: e, Publisher: msg.NewPublisher(uuid.New())}
	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)
	return srv
}

func testProject() project.Project {
	return project.Project{
		Name:        "Hameau",
		VoltageType: project.Voltage400,
		Nodes: []network.Node{
			{ID: "src", IsSource: true},
			{ID: "n1", Clients: []network.Client{{SKVA: 15}}},
		},
		Cables: []network.Cable{{ID: "k1", NodeAID: "src", NodeBID: "n1", TypeID: "baxb-150", LengthM: 250}},
	}
}

func TestCalculate(t *testing.T) {
	c := NewClient(newServer(t).URL + "/")

	res, err := c.Calculate(testProject(), network.Withdrawal, 0.9)
	assert.NilError(t, err)
	assert.Equal(t, res.Scenario, network.Withdrawal)
	assert.Equal(t, len(res.Cables), 1)

	local, err := engine.Compute(engine.Config{CosPhi: 0.9}, testProject().Network(), network.Withdrawal)
	assert.NilError(t, err)
	assert.DeepEqual(t, res, local)
}

func TestCalculateRemoteError(t *testing.T) {
	c := NewClient(newServer(t).URL)

	p := testProject()
	p.Nodes[0].IsSource = false
	_, err := c.Calculate(p, network.Mixed, 0)

	var remote *RemoteError
	assert.Assert(t, errors.As(err, &remote))
	assert.Equal(t, remote.StatusCode, http.StatusUnprocessableEntity)
	assert.ErrorContains(t, err, "exactly one source")
}

func TestCableTypes(t *testing.T) {
	types, err := NewClient(newServer(t).URL).CableTypes()
	assert.NilError(t, err)
	assert.DeepEqual(t, types, network.DefaultCableTypes())
}
