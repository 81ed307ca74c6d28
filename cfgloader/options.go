package cfgloader

// Options holds configuration options for Load and MustLoad.
type Options struct {
	// Path of the YAML file. Overrides CONFIG_PATH and ENVIRONMENT.
	Path string

	// Silent disables printing the loaded config to stdout.
	Silent bool

	// EnvFiles are loaded into the process environment before expansion.
	// Missing files are ignored. Default: ".env".
	EnvFiles []string
}

// Option is a functional option for configuring Load behavior.
type Option func(*Options)

// WithPath loads the config from path.
func WithPath(path string) Option {
	return func(o *Options) {
		o.Path = path
	}
}

// WithSilent disables config logging to stdout.
func WithSilent() Option {
	return func(o *Options) {
		o.Silent = true
	}
}

// WithEnvFiles sets the dotenv files loaded before the config is read.
func WithEnvFiles(files ...string) Option {
	return func(o *Options) {
		o.EnvFiles = files
	}
}
