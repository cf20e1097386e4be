package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timada-org/doorphone/internal/core"
)

func TestTopicValidate(t *testing.T) {
	for _, value := range []string{"door-pressed", "dash-pressed", "record-pressed", "door-opened"} {
		t.Run(value, func(t *testing.T) {
			topic, err := core.NewTopic(value)
			require.NoError(t, err)
			assert.Equal(t, value, topic.String())
		})
	}

	for _, value := range []string{"", "door", "door-pressed/1", "Door-pressed", "door-closed"} {
		t.Run("invalid "+value, func(t *testing.T) {
			_, err := core.NewTopic(value)
			require.Error(t, err)
		})
	}
}

func TestKindTopic(t *testing.T) {
	assert.Equal(t, core.TopicDoorPressed, core.KindDoor.Topic())
	assert.Equal(t, core.TopicDashPressed, core.KindDash.Topic())
	assert.Equal(t, core.TopicRecordPressed, core.KindRecord.Topic())
	assert.Equal(t, core.TopicDoorOpened, core.KindOpened.Topic())

	for _, kind := range core.PressedKinds {
		_, err := core.NewTopic(kind.Topic().String())
		require.NoError(t, err)
		assert.True(t, kind.Pressed())
	}

	assert.False(t, core.KindOpened.Pressed())
}

func TestParseKind(t *testing.T) {
	kind, err := core.ParseKind("record")
	require.NoError(t, err)
	assert.Equal(t, core.KindRecord, kind)

	_, err = core.ParseKind("ping")
	require.Error(t, err)

	_, err = core.ParseKind("")
	require.Error(t, err)
}
