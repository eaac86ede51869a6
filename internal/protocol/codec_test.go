package protocol

import (
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestEncodeMatchStart(t *testing.T) {
	assert := assert.New(t)

	frame, err := Encode(MatchStartCommand{MatchID: 7})
	assert.NoError(err)

	var envelope Envelope
	assert.NoError(json.Unmarshal(frame, &envelope))
	assert.Equal(TypeMatchStart, envelope.Type)

	var cmd MatchStartCommand
	assert.NoError(json.Unmarshal(envelope.Payload, &cmd))
	assert.Equal(7, cmd.MatchID)
}

func TestEncodeScoreUpdate(t *testing.T) {
	assert := assert.New(t)

	frame, err := Encode(&ScoreUpdateCommand{MatchID: 3, Player: 2, Score: 11})
	assert.NoError(err)

	var envelope Envelope
	assert.NoError(json.Unmarshal(frame, &envelope))
	assert.Equal(TypeScoreUpdate, envelope.Type)

	var cmd ScoreUpdateCommand
	assert.NoError(json.Unmarshal(envelope.Payload, &cmd))
	assert.Equal(3, cmd.MatchID)
	assert.Equal(2, cmd.Player)
	assert.Equal(11, cmd.Score)
}

func TestEncodeUnsupportedCommandPanics(t *testing.T) {
	assert := assert.New(t)

	assert.Panics(func() {
		_, _ = Encode(struct{ X int }{X: 1})
	})
}

func TestDecodeScoreUpdatePartial(t *testing.T) {
	assert := assert.New(t)

	// current_set deliberately absent
	frame := []byte(`{"type":"score_update","match_id":1,"score_player1":5,"status":"LIVE"}`)

	msg, err := Decode(frame)
	assert.NoError(err)
	assert.Equal(TypeScoreUpdate, msg.Type)
	if assert.NotNil(msg.ScoreUpdate) {
		assert.Equal(1, msg.ScoreUpdate.MatchID)
		if assert.NotNil(msg.ScoreUpdate.ScorePlayer1) {
			assert.Equal(5, *msg.ScoreUpdate.ScorePlayer1)
		}
		assert.Nil(msg.ScoreUpdate.CurrentSet)
		assert.Nil(msg.ScoreUpdate.ScorePlayer2)
		if assert.NotNil(msg.ScoreUpdate.Status) {
			assert.Equal("LIVE", *msg.ScoreUpdate.Status)
		}
	}
}

func TestDecodeNestedPayload(t *testing.T) {
	assert := assert.New(t)

	frame := []byte(`{"type":"match_started","payload":{"match_id":4,"status":"LIVE"}}`)

	msg, err := Decode(frame)
	assert.NoError(err)
	if assert.NotNil(msg.MatchStarted) {
		assert.Equal(4, msg.MatchStarted.MatchID)
		assert.Equal("LIVE", msg.MatchStarted.Status)
	}
}

func TestDecodeGameUpdate(t *testing.T) {
	assert := assert.New(t)

	frame := []byte(`{"type":"game_update","match_id":1,"game_id":10,"player1_score":21,"player2_score":19,"completed":true}`)

	msg, err := Decode(frame)
	assert.NoError(err)
	if assert.NotNil(msg.GameUpdate) {
		assert.Equal(10, msg.GameUpdate.GameID)
		assert.Equal(21, msg.GameUpdate.Player1Score)
		assert.True(msg.GameUpdate.Completed)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	assert := assert.New(t)

	_, err := Decode([]byte(`{"type":"unknown_event"}`))
	assert.Error(err)
	assert.True(errors.Is(err, ErrUnknownType))
}

func TestDecodeMalformed(t *testing.T) {
	assert := assert.New(t)

	cases := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"payload":{"match_id":1}}`), // missing type
		[]byte(`{}`),
	}

	for _, frame := range cases {
		_, err := Decode(frame)
		assert.Error(err, "frame %q should fail to decode", frame)
		assert.True(errors.Is(err, ErrMalformed), "frame %q should be malformed", frame)
	}
}

func TestDecodeBadPayloadShape(t *testing.T) {
	assert := assert.New(t)

	_, err := Decode([]byte(`{"type":"score_update","match_id":"not-a-number"}`))
	assert.Error(err)
	assert.True(errors.Is(err, ErrMalformed))
}
