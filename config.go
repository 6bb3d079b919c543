package relay

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/creasty/defaults"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// diagnostics receives the output of the fallback logger.
var diagnostics zapcore.WriteSyncer = zapcore.Lock(os.Stderr)

// Config drives a Run.
type Config struct {
	// Workers bounds the number of jobs running at once. Zero means one per CPU.
	Workers int
	// CheckInterval is the polling period of the shutdown wait.
	CheckInterval time.Duration `default:"100ms"`
	// JoinTimeout bounds the wait for the pool workers to exit once every job is done.
	JoinTimeout time.Duration `default:"30s"`
	// DrainTimeout bounds the wait for the listener to deliver the messages left after the last job.
	// A negative value waits until they are all delivered.
	DrainTimeout time.Duration `default:"5s"`

	MessageHandler MessageHandler `default:"-"`
	LogHandler     LogHandler     `default:"-"`

	// Logger receives diagnostics (handler failures, lifecycle). Defaults to the global zap logger, or to a
	// warn level JSON logger on stderr while the global one is the no-op logger.
	Logger *zap.Logger `default:"-"`
	// PoolOptions are passed to the ants pool.
	PoolOptions []ants.Option `default:"-"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("relay: invalid default tags: %v", err)) // static tags, cannot fail at runtime
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Logger == nil {
		c.Logger = defaultLogger()
	}
}

func defaultLogger() *zap.Logger {
	if global := zap.L(); global.Core().Enabled(zapcore.ErrorLevel) {
		return global.Named("relay")
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), diagnostics, zapcore.WarnLevel)
	return zap.New(core).Named("relay")
}

// Validate checks the configuration once defaults are applied.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive, got %s", ErrInvalidConfig, c.CheckInterval)
	}
	if c.JoinTimeout <= 0 {
		return fmt.Errorf("%w: join timeout must be positive, got %s", ErrInvalidConfig, c.JoinTimeout)
	}
	return nil
}
