package solpay

import (
	"time"

	"github.com/vitwit/solpay/logger"
	"github.com/vitwit/solpay/metrics"
)

type Option func(*SolPay)

func WithLogger(l logger.Logger) Option {
	return func(s *SolPay) {
		s.log = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *SolPay) {
		s.metrics = r
	}
}

func WithTimeout(t time.Duration) Option {
	return func(s *SolPay) {
		s.timeout = t
	}
}
