package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/user"
)

func TestRollbarLogger(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	logger := NewRollbarLogger(zap.New(obs), "API", core.NewTestConfig())
	logger.Enable(false)

	usr := user.User{ID: "1", Username: "ama", Email: "ama@church.org"}
	err := errors.New("boom")
	logger.Error("saving member", err, usr, map[string]interface{}{"member_id": "42"}, usr)
	logger.Named("DB").Info("migrated")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, "API", entries[0].LoggerName)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "saving member", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "ama", fields["user"])
	assert.Equal(t, "42", fields["member_id"])
	assert.Equal(t, "boom", fields["error"])

	assert.Equal(t, "API.DB", entries[1].LoggerName)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
}

func TestNewZapLogger(t *testing.T) {
	conf := core.NewTestConfig()
	assert.NotNil(t, NewZapLogger(conf))
	conf.Debug = true
	assert.NotNil(t, NewZapLogger(conf))
}
