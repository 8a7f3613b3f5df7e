package logsvc

import (
	"fmt"
	"os"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/koinonia-app/koinonia/core"
	"github.com/koinonia-app/koinonia/core/user"
)

type RollbarLogger struct {
	local *zap.SugaredLogger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewZapLogger builds the local logger: human readable in debug, JSON otherwise.
func NewZapLogger(conf *core.Config) *zap.Logger {
	var zconf zap.Config
	if conf.Debug {
		zconf = zap.NewDevelopmentConfig()
		zconf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zconf = zap.NewProductionConfig()
	}
	if conf.TestMode {
		zconf.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	zconf.DisableStacktrace = true

	logger, err := zconf.Build(zap.AddCallerSkip(1))
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "logsvc.NewZapLogger: %v\n", err)
		return zap.NewNop()
	}
	return logger.With(zap.String("env", conf.Env), zap.String("build", conf.Build))
}

// NewRollbarLogger returns a logger reporting to Rollbar and writing to `zl` under `name` ("API", "DB", "ADMIN"...).
func NewRollbarLogger(zl *zap.Logger, name string, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{local: zl.Named(name).Sugar()}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Named returns a logger for a sub component, sharing the Rollbar client.
func (l RollbarLogger) Named(name string) *RollbarLogger {
	return &RollbarLogger{local: l.local.Named(name)}
}

func (l RollbarLogger) Sync() error {
	rollbar.Wait()
	return l.local.Sync()
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []interface{}) {
	var usrSet bool
	rbArgs := make([]interface{}, 0, len(args)+1)
	rbArgs = append(rbArgs, msg)
	fields := make([]interface{}, 0, 2*len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if !usrSet { // only set one User
				rollbar.SetPerson(a.ID, a.Username, a.Email)
				fields = append(fields, "user", a.Username)
				usrSet = true
			}
		case error:
			rbArgs = append(rbArgs, a)
			fields = append(fields, "error", a)
		case map[string]interface{}:
			rbArgs = append(rbArgs, a)
			for k, v := range a {
				fields = append(fields, k, v)
			}
		default:
			rbArgs = append(rbArgs, a)
			fields = append(fields, "extra", a)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return rbArgs, fields
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Debug(rbArgs...)
	l.local.Debugw(msg, fields...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Info(rbArgs...)
	l.local.Infow(msg, fields...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Warning(rbArgs...)
	l.local.Warnw(msg, fields...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Error(rbArgs...)
	l.local.Errorw(msg, fields...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rbArgs, fields := l.prepare(msg, args)
	rollbar.Critical(rbArgs...)
	rollbar.Wait()
	l.local.Fatalw(msg, fields...)
}

// NewNopLogger discards everything. Used in tests.
func NewNopLogger() *RollbarLogger {
	rollbar.SetEnabled(false)
	return &RollbarLogger{local: zap.NewNop().Sugar()}
}
