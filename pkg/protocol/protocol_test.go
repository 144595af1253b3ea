package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/pkg/protocol"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	frame, err := protocol.Encode(protocol.TypeAuthenticated, protocol.AuthenticatedPayload{
		Status:       protocol.StatusSuccess,
		BrokerUsable: true,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"authenticated","payload":{"status":"success","brokerUsable":true}}`, string(frame))

	frame, err = protocol.Encode(protocol.TypeFeedJoined, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"feed_joined"}`, string(frame))

	_, err = protocol.Encode(protocol.TypeError, make(chan int))
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		frame    string
		wantType protocol.MessageType
		wantErr  error
	}{
		{name: "authenticate", frame: `{"type":"authenticate","payload":{"identity":"U1"}}`, wantType: protocol.TypeAuthenticate},
		{name: "join feed", frame: `{"type":"join_feed","payload":{"identity":"U1"}}`, wantType: protocol.TypeJoinFeed},
		{name: "not json", frame: `hello`, wantErr: protocol.ErrMalformedMessage},
		{name: "missing type", frame: `{"payload":{}}`, wantErr: protocol.ErrMalformedMessage},
		{name: "server only type", frame: `{"type":"new_post"}`, wantErr: protocol.ErrUnknownMessageType},
		{name: "unknown type", frame: `{"type":"leave_feed"}`, wantErr: protocol.ErrUnknownMessageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, err := protocol.Decode([]byte(tt.frame))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, env.Type)
		})
	}
}

func TestDecodePayload(t *testing.T) {
	t.Parallel()

	env, err := protocol.Decode([]byte(`{"type":"authenticate","payload":{"identity":"0xabc"}}`))
	require.NoError(t, err)
	p, err := protocol.DecodePayload[protocol.IdentityPayload](env)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", p.Identity)

	empty, err := protocol.DecodePayload[protocol.IdentityPayload](protocol.Envelope{Type: protocol.TypeAuthenticate})
	require.NoError(t, err)
	assert.Empty(t, empty.Identity)

	_, err = protocol.DecodePayload[protocol.IdentityPayload](protocol.Envelope{
		Type:    protocol.TypeAuthenticate,
		Payload: []byte(`"0xabc"`),
	})
	assert.ErrorIs(t, err, protocol.ErrMalformedMessage)
}
