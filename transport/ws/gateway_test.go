package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lovefindme/domain"
	"lovefindme/observability"
	"lovefindme/repositories"
	"lovefindme/runtime"
	"lovefindme/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// gatewayFixture wires a real registry, router and badger-backed storage
// behind an httptest server, so the tests exercise the full connection
// state machine over an actual websocket.
type gatewayFixture struct {
	server   *httptest.Server
	users    *repositories.UserRepository
	messages repositories.MessageRepository
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := repositories.NewUserRepository(db)
	messages := repositories.NewMessageRepository(db, slog.Default())
	registry := runtime.NewRegistry(slog.Default(), users)
	router := runtime.NewRouter(slog.Default(), users, messages, registry,
		nil, nil, observability.NewMonitoring())
	chat := services.NewChatService(router, nil)
	gateway := NewGateway(slog.Default(), registry, chat, 16)

	server := httptest.NewServer(http.HandlerFunc(gateway.Handle))
	t.Cleanup(server.Close)

	return &gatewayFixture{server: server, users: users, messages: messages}
}

func (f *gatewayFixture) register(t *testing.T, username string) domain.UserID {
	t.Helper()
	id, err := f.users.CreateUser(username, username+"@example.com", "hash")
	require.NoError(t, err)
	return id
}

func (f *gatewayFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, name string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(Envelope{Event: name, Data: payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func readEvent(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestGateway_Join_Deliver_And_Leave(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	// Given alice is connected and identified
	aliceConn := f.dial(t)
	writeEvent(t, aliceConn, "join", map[string]string{"userID": string(alice)})
	req.Equal("online_users", readEvent(t, aliceConn).Event)

	// When bob joins, both ends see the new roster
	bobConn := f.dial(t)
	writeEvent(t, bobConn, "join", map[string]string{"userID": string(bob)})
	req.Equal("online_users", readEvent(t, bobConn).Event)

	env := readEvent(t, aliceConn)
	req.Equal("online_users", env.Event)
	var roster struct {
		Users []string `json:"users"`
	}
	req.NoError(json.Unmarshal(env.Data, &roster))
	req.Equal([]string{"alice", "bob"}, roster.Users)

	// When alice sends, the persisted record reaches both live ends
	writeEvent(t, aliceConn, "send_message", map[string]string{
		"sender":   string(alice),
		"receiver": string(bob),
		"content":  "hi bob",
	})

	for _, conn := range []*websocket.Conn{bobConn, aliceConn} {
		env := readEvent(t, conn)
		req.Equal("receive_message", env.Event)

		var msg struct {
			ID      string `json:"id"`
			Sender  string `json:"sender"`
			Content string `json:"content"`
		}
		req.NoError(json.Unmarshal(env.Data, &msg))
		req.NotEmpty(msg.ID)
		req.Equal(string(alice), msg.Sender)
		req.Equal("hi bob", msg.Content)
	}

	// When bob's connection dies abruptly, alice sees him leave
	req.NoError(bobConn.Close())
	env = readEvent(t, aliceConn)
	req.Equal("online_users", env.Event)
	req.NoError(json.Unmarshal(env.Data, &roster))
	req.Equal([]string{"alice"}, roster.Users)
}

func TestGateway_Send_Before_Join_Is_Rejected(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	conn := f.dial(t)
	writeEvent(t, conn, "send_message", map[string]string{
		"sender":   string(alice),
		"receiver": string(bob),
		"content":  "too early",
	})

	req.Equal("error", readEvent(t, conn).Event)

	// Nothing was persisted
	messages, err := f.messages.GetConversation(alice, bob)
	req.NoError(err)
	req.Empty(messages)
}

func TestGateway_Join_Unknown_User_Stays_Unidentified(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	bob := f.register(t, "bob")
	ghost := domain.NewUserID()

	conn := f.dial(t)

	// A well-formed but unregistered id draws no reply, the connection
	// simply never transitions to identified
	writeEvent(t, conn, "join", map[string]string{"userID": string(ghost)})
	writeEvent(t, conn, "send_message", map[string]string{
		"sender":   string(ghost),
		"receiver": string(bob),
		"content":  "boo",
	})

	req.Equal("error", readEvent(t, conn).Event)
}

func TestGateway_Malformed_Frame_Gets_Error_Reply(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)

	conn := f.dial(t)
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	req.Equal("error", readEvent(t, conn).Event)

	// The connection survives the bad frame
	writeEvent(t, conn, "unknown_event", map[string]string{})
	req.Equal("error", readEvent(t, conn).Event)
}

func TestGateway_Blocked_Send_Fails_For_Sender_Only(t *testing.T) {
	req := require.New(t)
	f := newGatewayFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	// Given bob blocked alice
	req.NoError(f.users.Block(bob, alice))

	aliceConn := f.dial(t)
	writeEvent(t, aliceConn, "join", map[string]string{"userID": string(alice)})
	req.Equal("online_users", readEvent(t, aliceConn).Event)

	writeEvent(t, aliceConn, "send_message", map[string]string{
		"sender":   string(alice),
		"receiver": string(bob),
		"content":  "must not land",
	})

	// Then alice gets the error and the ledger stays clean
	req.Equal("error", readEvent(t, aliceConn).Event)
	messages, err := f.messages.GetConversation(alice, bob)
	req.NoError(err)
	req.Empty(messages)
}
