package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDirectKey_IsOrderIndependent(t *testing.T) {
	require.Equal(t, "1:2", DirectKey(1, 2))
	require.Equal(t, DirectKey(1, 2), DirectKey(2, 1))
	require.NotEqual(t, DirectKey(1, 2), DirectKey(1, 3))
	require.Equal(t, "3:12", DirectKey(12, 3))
}

func TestConversationView_JSONFlattensConversation(t *testing.T) {
	req := require.New(t)
	name := "Team"
	view := ConversationView{
		Conversation: Conversation{ID: 10, Name: &name, IsGroup: true, CreatedAt: time.Unix(0, 0).UTC()},
		Participants: []*User{{ID: 1, Username: "alice", PasswordHash: "secret"}},
	}

	raw, err := json.Marshal(view)
	req.NoError(err)

	var decoded map[string]interface{}
	req.NoError(json.Unmarshal(raw, &decoded))
	req.EqualValues(10, decoded["id"])
	req.Equal("Team", decoded["name"])
	req.Equal(true, decoded["isGroup"])
	req.NotContains(decoded, "lastMessage")
	req.NotContains(string(raw), "secret")
}
