package preprocessing

import (
	"io"

	"github.com/fatih/color"

	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// DefaultMissingThreshold は列を削除する欠損率のデフォルト閾値
const DefaultMissingThreshold = 0.5

// Option は Cleaner と FeatureEngineer を設定する関数
type Option func(*settings)

type settings struct {
	logger    log.Logger
	console   io.Writer
	threshold float64
}

func newSettings(component string, opts []Option) settings {
	s := settings{
		logger:    log.Default().With(log.ComponentKey, component),
		console:   color.Output,
		threshold: DefaultMissingThreshold,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithLogger はログの出力先を設定する
func WithLogger(logger log.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithConsole は保存結果を表示するコンソールを設定する
func WithConsole(w io.Writer) Option {
	return func(s *settings) {
		s.console = w
	}
}

// WithThreshold は Cleaner の欠損率の閾値を設定する（FeatureEngineer では無視される）
func WithThreshold(threshold float64) Option {
	return func(s *settings) {
		s.threshold = threshold
	}
}
