package config

// Override lets a caller adjust a parsed configuration before validation,
// e.g. a test scenario pointing the chain at a local node.
type Override interface {
	ModifyConfig(cfg *Config)
}

// OverrideFunc adapts a plain function to Override.
type OverrideFunc func(cfg *Config)

func (f OverrideFunc) ModifyConfig(cfg *Config) {
	f(cfg)
}

// ChainOverride only touches the chain section.
type ChainOverride func(chain *ChainConfig)

func (f ChainOverride) ModifyConfig(cfg *Config) {
	f(&cfg.Chain)
}

// ApplyOverrides runs the overrides in order; later ones win.
func ApplyOverrides(cfg *Config, overrides ...Override) {
	for _, o := range overrides {
		if o != nil {
			o.ModifyConfig(cfg)
		}
	}
}
