package protocol

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

var (
	// ErrUnknownType marks a frame whose tag is not one of the known
	// inbound events. Callers drop these without closing the connection.
	ErrUnknownType = errors.New("protocol: unknown message type")

	// ErrMalformed marks a frame that is not valid JSON or is missing
	// its type tag.
	ErrMalformed = errors.New("protocol: malformed frame")
)

// Inbound is a decoded server event. Exactly one of the event fields is
// non-nil, matching the Type tag.
type Inbound struct {
	Type         string
	ScoreUpdate  *ScoreUpdateEvent
	MatchStarted *MatchStartedEvent
	MatchEnded   *MatchEndedEvent
	GameUpdate   *GameUpdateEvent
}

// CommandType maps an outbound command to its wire tag. The command set is
// closed; passing anything else is a bug in the caller and panics.
func CommandType(command any) string {
	switch command.(type) {
	case MatchStartCommand, *MatchStartCommand:
		return TypeMatchStart
	case MatchEndCommand, *MatchEndCommand:
		return TypeMatchEnd
	case ScoreUpdateCommand, *ScoreUpdateCommand:
		return TypeScoreUpdate
	default:
		panic(fmt.Sprintf("protocol: unsupported command %T", command))
	}
}

// Encode serializes an outbound command into a wire frame.
func Encode(command any) ([]byte, error) {
	envelope := Envelope{Type: CommandType(command)}

	payload, err := json.Marshal(command)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s payload: %w", envelope.Type, err)
	}
	envelope.Payload = payload

	return json.Marshal(envelope)
}

// Decode parses a raw frame into a typed inbound event. It never panics:
// malformed or unrecognized frames come back as errors for the transport
// to log and discard.
func Decode(frame []byte) (Inbound, error) {
	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if envelope.Type == "" {
		return Inbound{}, fmt.Errorf("%w: missing type tag", ErrMalformed)
	}

	// The backend puts event fields at the top level of the frame rather
	// than nesting them, so fall back to the whole frame when there is no
	// payload object.
	body := []byte(envelope.Payload)
	if len(body) == 0 {
		body = frame
	}

	msg := Inbound{Type: envelope.Type}
	switch envelope.Type {
	case TypeScoreUpdate:
		event := &ScoreUpdateEvent{}
		if err := json.Unmarshal(body, event); err != nil {
			return Inbound{}, fmt.Errorf("%w: bad %s payload: %v", ErrMalformed, envelope.Type, err)
		}
		msg.ScoreUpdate = event
	case TypeMatchStarted:
		event := &MatchStartedEvent{}
		if err := json.Unmarshal(body, event); err != nil {
			return Inbound{}, fmt.Errorf("%w: bad %s payload: %v", ErrMalformed, envelope.Type, err)
		}
		msg.MatchStarted = event
	case TypeMatchEnded:
		event := &MatchEndedEvent{}
		if err := json.Unmarshal(body, event); err != nil {
			return Inbound{}, fmt.Errorf("%w: bad %s payload: %v", ErrMalformed, envelope.Type, err)
		}
		msg.MatchEnded = event
	case TypeGameUpdate:
		event := &GameUpdateEvent{}
		if err := json.Unmarshal(body, event); err != nil {
			return Inbound{}, fmt.Errorf("%w: bad %s payload: %v", ErrMalformed, envelope.Type, err)
		}
		msg.GameUpdate = event
	default:
		return Inbound{}, fmt.Errorf("%w: %q", ErrUnknownType, envelope.Type)
	}

	return msg, nil
}
