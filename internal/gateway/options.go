package gateway

// callConfig holds per-call dispatch settings. It lives only for the
// duration of the one call it configures.
type callConfig struct {
	skipHooks bool
}

// CallOption configures a single dispatcher call.
type CallOption func(*callConfig)

// SkipHooks marks a call as exempt from the hook pipeline. Hooks use it for
// their secondary calls so those calls cannot re-trigger the hooks that
// issued them. The marker applies to exactly one call and is not inherited
// by anything that call does in turn.
func SkipHooks() CallOption {
	return func(c *callConfig) {
		c.skipHooks = true
	}
}

func applyOptions(opts []CallOption) callConfig {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
