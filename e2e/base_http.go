package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping end-to-end scenarios")
	}
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// Step prints a colorized header for the current scenario step in logs
func (s *BaseHTTPSuite) Step(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// PostJSON performs a POST against the running server and decodes the response
// body into out. Request/response bodies are dumped when E2E_DEBUG_JSON is on.
func (s *BaseHTTPSuite) PostJSON(path string, payload any, out any) int {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)

	url := fmt.Sprintf("http://%s%s", s.Config.ServerAddr, path)
	start := time.Now()
	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.logExchange("POST", path, start, body, resp, out)
	return resp.StatusCode
}

// GetJSON performs a GET and decodes the response body into out.
func (s *BaseHTTPSuite) GetJSON(path string, out any) int {
	url := fmt.Sprintf("http://%s%s", s.Config.ServerAddr, path)
	start := time.Now()
	resp, err := s.client.Get(url)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.logExchange("GET", path, start, nil, resp, out)
	return resp.StatusCode
}

func (s *BaseHTTPSuite) logExchange(method, path string, start time.Time, reqBody []byte, resp *http.Response, out any) {
	s.T().Logf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	if s.Config.DebugJSON {
		if reqBody != nil {
			s.T().Logf("REQUEST:\n%s", reqBody)
		}
		if out != nil {
			pretty, _ := json.MarshalIndent(out, "", "  ")
			s.T().Logf("RESPONSE:\n%s", pretty)
		}
	}
}

// Dial opens a websocket session against the running server.
func (s *BaseHTTPSuite) Dial() *websocket.Conn {
	url := fmt.Sprintf("ws://%s/ws", s.Config.ServerAddr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err, "Failed to open websocket at "+url)
	return conn
}
