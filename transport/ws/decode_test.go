package ws

import (
	"testing"

	"lovefindme/domain/event"
	"lovefindme/errors"

	"github.com/stretchr/testify/require"
)

func TestDecode_Join(t *testing.T) {
	req := require.New(t)

	inbound, err := Decode([]byte(`{"event":"join","data":{"userID":"507f1f77bcf86cd799439011"}}`))
	req.NoError(err)
	req.Equal(event.Join{UserID: "507f1f77bcf86cd799439011"}, inbound)
}

func TestDecode_SendMessage(t *testing.T) {
	req := require.New(t)

	raw := `{"event":"send_message","data":{
		"sender":"507f1f77bcf86cd799439011",
		"receiver":"507f1f77bcf86cd799439012",
		"content":"hello"}}`

	inbound, err := Decode([]byte(raw))
	req.NoError(err)
	req.Equal(event.SendMessage{
		Sender:   "507f1f77bcf86cd799439011",
		Receiver: "507f1f77bcf86cd799439012",
		Content:  "hello",
	}, inbound)
}

func TestDecode_Rejections(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name string
		raw  string
	}{
		{"Malformed envelope", `{not json`},
		{"Unknown event", `{"event":"poke","data":{}}`},
		{"Join with short id", `{"event":"join","data":{"userID":"abc"}}`},
		{"Join with uppercase id", `{"event":"join","data":{"userID":"507F1F77BCF86CD799439011"}}`},
		{"Send without content", `{"event":"send_message","data":{"sender":"507f1f77bcf86cd799439011","receiver":"507f1f77bcf86cd799439012"}}`},
		{"Send to nobody", `{"event":"send_message","data":{"sender":"507f1f77bcf86cd799439011","content":"hi"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			req.ErrorIs(err, errors.ErrInvalidIdentity, "raw=%s", tt.raw)
		})
	}
}

func TestEncode_WrapsInEnvelope(t *testing.T) {
	req := require.New(t)

	frame, err := Encode(event.Failure{Message: "nope"})
	req.NoError(err)
	req.JSONEq(`{"event":"error","data":{"message":"nope"}}`, string(frame))

	frame, err = Encode(event.RosterUpdate{Users: []string{"alice"}})
	req.NoError(err)
	req.JSONEq(`{"event":"online_users","data":{"users":["alice"]}}`, string(frame))
}
