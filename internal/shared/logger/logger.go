package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New monta o logger do serviço. level vazio mantém o padrão do ambiente
// (debug em local, info nos demais).
func New(serviceName, env, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	// sempre garantir que serviço e env entrem como campos padrão
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
}
