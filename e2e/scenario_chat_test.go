package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type testChatScenarioSuite struct {
	BaseHTTPSuite
}

func TestChatScenarioSuite(t *testing.T) {
	suite.Run(t, &testChatScenarioSuite{})
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (s *testChatScenarioSuite) TestFullChatFlow() {
	// Unique accounts per run so the scenario can replay against a dirty store
	suffix := uuid.NewString()[:8]

	var alice, bob string

	s.Run("Step 1: Register two users", func() {
		s.Step(s.T(), "Register alice and bob")

		alice = s.register("alice_"+suffix, fmt.Sprintf("alice_%s@example.com", suffix))
		bob = s.register("bob_"+suffix, fmt.Sprintf("bob_%s@example.com", suffix))
		s.Require().NotEqual(alice, bob)
	})

	var aliceConn, bobConn *websocket.Conn

	s.Run("Step 2: Both sides join and see each other online", func() {
		s.Step(s.T(), "Open websocket sessions")

		aliceConn = s.Dial()
		bobConn = s.Dial()

		s.send(aliceConn, "join", map[string]string{"userID": alice})
		// Alice's own join triggers a roster broadcast to herself
		s.Require().Equal("online_users", s.receive(aliceConn).Event)

		s.send(bobConn, "join", map[string]string{"userID": bob})
		s.Require().Equal("online_users", s.receive(bobConn).Event)
		// Bob's arrival reaches alice too
		s.Require().Equal("online_users", s.receive(aliceConn).Event)
	})

	s.Run("Step 3: Message reaches both ends", func() {
		s.Step(s.T(), "Alice sends, both receive")

		s.send(aliceConn, "send_message", map[string]string{
			"sender":   alice,
			"receiver": bob,
			"content":  "hello from the scenario",
		})

		for _, conn := range []*websocket.Conn{bobConn, aliceConn} {
			env := s.receive(conn)
			s.Require().Equal("receive_message", env.Event)

			var msg struct {
				Sender  string `json:"sender"`
				Content string `json:"content"`
			}
			s.Require().NoError(json.Unmarshal(env.Data, &msg))
			s.Require().Equal(alice, msg.Sender)
			s.Require().Equal("hello from the scenario", msg.Content)
		}
	})

	s.Run("Step 4: History is symmetric", func() {
		s.Step(s.T(), "Fetch the conversation from both directions")

		var forward, backward []map[string]any
		s.Require().Equal(http.StatusOK,
			s.GetJSON(fmt.Sprintf("/api/messages/%s/%s", alice, bob), &forward))
		s.Require().Equal(http.StatusOK,
			s.GetJSON(fmt.Sprintf("/api/messages/%s/%s", bob, alice), &backward))
		s.Require().Equal(forward, backward)
		s.Require().Len(forward, 1)
	})

	s.Run("Step 5: Blocking suppresses delivery", func() {
		s.Step(s.T(), "Bob blocks alice, alice's next send fails")

		var out map[string]string
		status := s.PostJSON("/api/block/"+alice, map[string]string{"userId": bob}, &out)
		s.Require().Equal(http.StatusOK, status)

		s.send(aliceConn, "send_message", map[string]string{
			"sender":   alice,
			"receiver": bob,
			"content":  "this must not land",
		})
		s.Require().Equal("error", s.receive(aliceConn).Event)

		// Still exactly one persisted message
		var history []map[string]any
		s.Require().Equal(http.StatusOK,
			s.GetJSON(fmt.Sprintf("/api/messages/%s/%s", alice, bob), &history))
		s.Require().Len(history, 1)
	})

	s.Run("Step 6: Disconnect shrinks the roster", func() {
		s.Step(s.T(), "Bob leaves")

		s.Require().NoError(bobConn.Close())
		env := s.receive(aliceConn)
		s.Require().Equal("online_users", env.Event)

		var roster struct {
			Users []string `json:"users"`
		}
		s.Require().NoError(json.Unmarshal(env.Data, &roster))
		s.Require().NotContains(roster.Users, "bob_"+suffix)

		s.Require().NoError(aliceConn.Close())
	})
}

func (s *testChatScenarioSuite) register(username, email string) string {
	var out struct {
		ID string `json:"id"`
	}
	status := s.PostJSON("/api/register", map[string]string{
		"username": username,
		"email":    email,
		"password": "CorrectHorse42!Battery",
	}, &out)
	s.Require().Equal(http.StatusCreated, status)
	s.Require().Len(out.ID, 24)
	return out.ID
}

func (s *testChatScenarioSuite) send(conn *websocket.Conn, name string, data any) {
	payload, err := json.Marshal(data)
	s.Require().NoError(err)
	frame, err := json.Marshal(envelope{Event: name, Data: payload})
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, frame))
}

func (s *testChatScenarioSuite) receive(conn *websocket.Conn) envelope {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, raw, err := conn.ReadMessage()
	s.Require().NoError(err)

	var env envelope
	s.Require().NoError(json.Unmarshal(raw, &env))
	return env
}
