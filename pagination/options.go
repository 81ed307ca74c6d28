package pagination

const (
	defaultPageSize = 20
	defaultMaxSize  = 100
)

// Options configures pagination behavior.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Option is a functional option for Normalize.
type Option func(*Options)

// WithDefaultPageSize sets the page size used when none was requested.
func WithDefaultPageSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.DefaultPageSize = size
		}
	}
}

// WithMaxPageSize caps the page size.
func WithMaxPageSize(maxSize int) Option {
	return func(o *Options) {
		if maxSize > 0 {
			o.MaxPageSize = maxSize
		}
	}
}

func defaultOptions() Options {
	return Options{DefaultPageSize: defaultPageSize, MaxPageSize: defaultMaxSize}
}
