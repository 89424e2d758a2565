package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ohowland/lvnet/internal/pkg/network"
	"github.com/ohowland/lvnet/internal/pkg/project"
)

// Client calls a remote lvnet webservice.
type Client struct {
	url  string
	http *http.Client
}

// RemoteError is a non-200 answer of the service.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("webservice: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// NewClient returns a client of the service at baseURL.
func NewClient(baseURL string) Client {
	return Client{
		url:  strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// Calculate posts p and returns the service's result. A zero cosPhi uses the
// service's configured power factor.
func (c Client) Calculate(p project.Project, scenario network.Scenario, cosPhi float64) (network.CalculationResult, error) {
	var body bytes.Buffer
	if err := project.Encode(&body, p, project.JSON); err != nil {
		return network.CalculationResult{}, err
	}

	q := url.Values{}
	q.Set("scenario", scenario.String())
	if cosPhi != 0 {
		q.Set("cosPhi", strconv.FormatFloat(cosPhi, 'f', -1, 64))
	}

	resp, err := c.http.Post(c.url+"/calculate?"+q.Encode(), "application/json", &body)
	if err != nil {
		return network.CalculationResult{}, err
	}
	defer resp.Body.Close()

	var res network.CalculationResult
	if err := decode(resp, &res); err != nil {
		return network.CalculationResult{}, err
	}
	return res, nil
}

// CableTypes returns the service's default catalog.
func (c Client) CableTypes() ([]network.CableType, error) {
	resp, err := c.http.Get(c.url + "/cabletypes")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var types []network.CableType
	if err := decode(resp, &types); err != nil {
		return nil, err
	}
	return types, nil
}

func decode(resp *http.Response, v interface{}) error {
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return &RemoteError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
