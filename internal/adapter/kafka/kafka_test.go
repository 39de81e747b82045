package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wetland-gis-tools/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2018, time.March, 7, 9, 0, 0, 0, time.UTC))
	domain.SetClock(fake)
	t.Cleanup(func() { domain.SetClock(nil) })

	ev := domain.NewRunEvent("delete-unused-domains", []string{"master.gpkg"})
	ev.Count("deleted", 2)
	fake.Advance(time.Second)
	ev.Finish(domain.External("delete domain", errors.New("disk I/O error")), false)

	msg, err := serializeToMessage(ev)
	require.NoError(t, err)

	assert.Equal(t, []byte(ev.ID), msg.Key)
	assert.Contains(t, string(msg.Value), `"tool":"delete-unused-domains"`)
	assert.Contains(t, string(msg.Value), `"error_kind":"external_call_failed"`)
	assert.Contains(t, string(msg.Value), `"started_at":"2018-03-07T09:00:00Z"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "tool", msg.Headers[0].Key)
	assert.Equal(t, []byte("delete-unused-domains"), msg.Headers[0].Value)
	assert.Equal(t, "outcome", msg.Headers[1].Key)
	assert.Equal(t, []byte("failed"), msg.Headers[1].Value)
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	assert.NoError(t, p.Publish(context.Background(), domain.NewRunEvent("append", nil)))
	assert.NoError(t, p.Close())
}
