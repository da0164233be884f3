package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecollab/internal/models"
)

func TestDecode(t *testing.T) {
	yes := true
	tests := []struct {
		name string
		raw  string
		want Message
	}{
		{
			"create with fields",
			`{"type":"create_session","sessionName":"Demo","language":"go","code":"x","participantName":"A"}`,
			CreateSession{SessionName: "Demo", Language: "go", Code: "x", ParticipantName: "A"},
		},
		{
			"create with defaults",
			`{"type":"create_session"}`,
			CreateSession{SessionName: DefaultSessionName, Language: DefaultLanguage, ParticipantName: DefaultParticipantName},
		},
		{
			"join",
			`{"type":"join_session","sessionId":"s1"}`,
			JoinSession{SessionID: "s1", ParticipantName: DefaultParticipantName},
		},
		{
			"code change",
			`{"type":"code_change","changeType":"delete","position":{"line":2,"column":3},"content":"ab"}`,
			CodeChange{ChangeType: models.ChangeDelete, Position: models.Position{Line: 2, Column: 3}, Content: "ab"},
		},
		{
			"cursor",
			`{"type":"cursor_update","cursor":{"line":1,"column":4}}`,
			CursorUpdate{Cursor: models.Position{Line: 1, Column: 4}},
		},
		{
			"voice annotation",
			`{"type":"voice_annotation","audioUrl":"blob:x"}`,
			VoiceAnnotation{AudioURL: "blob:x"},
		},
		{
			"global access toggle",
			`{"type":"global_access_toggle","globalAccess":true}`,
			PresenceSignal{Kind: TypeGlobalAccessToggle, GlobalAccess: &yes},
		},
		{
			"unknown",
			`{"type":"chat","content":"hi"}`,
			Unknown{Kind: "chat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		raw    string
		reason string
	}{
		{`not json`, ReasonInvalidMessage},
		{`{"type":`, ReasonInvalidMessage},
		{`{"sessionId":"s1"}`, ReasonInvalidMessage},
		{`{"type":"join_session"}`, ReasonMissingSessionID},
		{`{"type":"code_change","changeType":"move","position":{"line":1}}`, ReasonInvalidChange},
		{`{"type":"code_change","changeType":"insert"}`, ReasonInvalidChange},
		{`{"type":"cursor_update"}`, ReasonInvalidCursor},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			var pe *ProtocolError
			require.True(t, errors.As(err, &pe), "expected ProtocolError, got %v", err)
			assert.Equal(t, tt.reason, pe.Reason)
			assert.NotEmpty(t, pe.Message)
		})
	}
}

func TestDecode_PresenceKinds(t *testing.T) {
	for _, kind := range []string{
		TypeVideoChatStart, TypeVideoChatEnd, TypeVoiceChatStart, TypeVoiceChatEnd,
		TypeScreenShareStart, TypeScreenShareEnd, TypeGlobalAccessToggle,
	} {
		msg, err := Decode([]byte(`{"type":"` + kind + `"}`))
		require.NoError(t, err)
		sig, ok := msg.(PresenceSignal)
		require.True(t, ok, kind)
		assert.Equal(t, kind, sig.Type())
	}
}
