package telemetry

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/d60-Lab/feedmix/config"
)

// InitSentry 配置错误上报；DSN 为空时不启用，CaptureError 变为空操作
func InitSentry(cfg config.SentryConfig) (flush func(), err error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
	}); err != nil {
		return nil, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError 上报调用级失败（store 故障等），nil 忽略
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}
