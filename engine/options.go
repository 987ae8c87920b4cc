package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for BuildChart() and Render()
// ============================================================================

// Option configures chart construction via functional options pattern.
type Option func(*config)

type config struct {
	Margin   Margin
	Palette  []string
	HistBins int // 0 = Sturges' rule
}

// WithMargin overrides the uniform layout margin.
func WithMargin(m Margin) Option {
	return func(c *config) {
		c.Margin = m
	}
}

// WithPalette overrides the series color palette.
func WithPalette(colors []string) Option {
	return func(c *config) {
		if len(colors) > 0 {
			c.Palette = colors
		}
	}
}

// WithHistogramBins fixes the number of histogram bins.
func WithHistogramBins(n int) Option {
	return func(c *config) {
		c.HistBins = n
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Margin:  DefaultMargin,
		Palette: defaultColors,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
