package ws

import (
	"encoding/json"
	"fmt"

	"lovefindme/domain/event"
	"lovefindme/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Envelope is the wire framing of every event, inbound and outbound:
// a name plus a JSON payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode turns a raw frame into a validated tagged variant. Malformed or
// unknown payloads are rejected here, at the boundary, so core logic never
// sees arbitrary shapes.
func Decode(raw []byte) (event.Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope", errors.ErrInvalidIdentity)
	}

	switch env.Event {
	case event.NameJoin:
		var join event.Join
		if err := json.Unmarshal(env.Data, &join); err != nil {
			return nil, fmt.Errorf("%w: malformed join payload", errors.ErrInvalidIdentity)
		}
		if err := validate.Struct(join); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidIdentity, err)
		}
		return join, nil

	case event.NameSendMessage:
		var send event.SendMessage
		if err := json.Unmarshal(env.Data, &send); err != nil {
			return nil, fmt.Errorf("%w: malformed send_message payload", errors.ErrInvalidIdentity)
		}
		if err := validate.Struct(send); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidIdentity, err)
		}
		return send, nil

	default:
		return nil, fmt.Errorf("%w: unknown event %q", errors.ErrInvalidIdentity, env.Event)
	}
}

// Encode frames an outbound event for the wire.
func Encode(e event.Outbound) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: e.EventName(), Data: data})
}
