package eventsvc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koinonia-app/koinonia/core"
	logsvc "github.com/koinonia-app/koinonia/services/logger"
)

func TestEncode(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	core.NowFunc = func() time.Time { return now }
	defer func() { core.NowFunc = time.Now }()

	data, err := Encode(core.SubjectMemberCreated, map[string]string{"id": "42"})
	require.NoError(t, err)

	var env struct {
		Subject    string            `json:"subject"`
		OccurredAt time.Time         `json:"occurred_at"`
		Data       map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "member.created", env.Subject)
	assert.True(t, now.Equal(env.OccurredAt))
	assert.Equal(t, "42", env.Data["id"])

	_, err = Encode("bad", make(chan int))
	assert.Error(t, err)
}

func TestNATSPublisher_Subject(t *testing.T) {
	assert.Equal(t, "koinonia.post.published", NewNATSPublisher(nil, "koinonia").Subject(core.SubjectPostPublished))
	assert.Equal(t, "post.published", NewNATSPublisher(nil, "").Subject(core.SubjectPostPublished))
}

func TestNewPublisher_Disabled(t *testing.T) {
	conf := core.NewTestConfig()
	pub, closeFn, err := NewPublisher(conf, logsvc.NewNopLogger())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, NopPublisher{}, pub)
	assert.NoError(t, pub.Publish(context.Background(), core.SubjectMemberCreated, nil))
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	ctx := context.Background()
	require.NoError(t, rec.Publish(ctx, core.SubjectMemberCreated, 1))
	require.NoError(t, rec.Publish(ctx, core.SubjectPostPublished, 2))
	assert.Equal(t, []string{"member.created", "post.published"}, rec.Subjects())
}
