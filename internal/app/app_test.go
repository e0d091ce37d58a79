package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LENAX/saucer/pkg/config"
	"github.com/LENAX/saucer/pkg/plugin"
	"github.com/LENAX/saucer/pkg/storage"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg := config.Default()
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.History)
	assert.NotNil(t, a.Engine)
	assert.NotNil(t, a.Bus)
	assert.Empty(t, a.Plugins.ListPlugins())

	p, err := a.Engine.Plan()
	require.NoError(t, err)
	assert.Equal(t, "saucer bundle all", p.Description())
}

func TestNew_WithHistory(t *testing.T) {
	cfg := config.Default()
	cfg.Saucer.History.Enabled = true
	cfg.Saucer.History.DSN = filepath.Join(t.TempDir(), "history.db")

	a, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, a.History)
	assert.Same(t, a.History, a.Engine.History())
	assert.IsType(t, &storage.CachedRunRepository{}, a.History)
	require.NoError(t, a.Close())

	b, err := New(cfg, WithoutHistory())
	require.NoError(t, err)
	defer b.Close()
	assert.Nil(t, b.History)
}

func TestNew_UnsupportedHistory(t *testing.T) {
	cfg := config.Default()
	cfg.Saucer.History.Enabled = true
	cfg.Saucer.History.Type = "oracle"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNewPluginManager(t *testing.T) {
	cfg := config.Default()
	cfg.Saucer.Notify.Log = true
	cfg.Saucer.Notify.Kafka.Enabled = true
	cfg.Saucer.Notify.Kafka.Brokers = []string{"localhost:9092"}

	pm, closers, err := NewPluginManager(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka", "log"}, pm.ListPlugins())
	require.Len(t, closers, 1)
	for _, c := range closers {
		assert.NoError(t, c())
	}
}

func TestNewPluginManager_InvalidParams(t *testing.T) {
	cfg := config.Default()
	cfg.Saucer.Notify.Kafka.Enabled = true
	_, _, err := NewPluginManager(cfg)
	assert.Error(t, err, "kafka without brokers")

	cfg = config.Default()
	cfg.Saucer.Notify.Email.Enabled = true
	_, _, err = NewPluginManager(cfg)
	assert.Error(t, err, "email without smtp host")
}

// closeTracker 只记录是否被关闭的 Kafka writer
type closeTracker struct{ closed bool }

func (w *closeTracker) WriteMessages(ctx context.Context, msgs ...kafka.Message) error { return nil }
func (w *closeTracker) Close() error {
	w.closed = true
	return nil
}

func TestNewPluginManager_ReleasesKafkaWhenLaterPluginFails(t *testing.T) {
	w := &closeTracker{}
	old := newKafkaPlugin
	newKafkaPlugin = func() *plugin.KafkaPlugin { return plugin.NewKafkaPlugin(w) }
	t.Cleanup(func() { newKafkaPlugin = old })

	cfg := config.Default()
	cfg.Saucer.Notify.Kafka.Enabled = true
	cfg.Saucer.Notify.Email.Enabled = true

	pm, closers, err := NewPluginManager(cfg)
	require.Error(t, err)
	assert.Nil(t, pm)
	assert.Nil(t, closers)
	assert.True(t, w.closed)
}
