package bwtree

// Config holds every tunable read once at New() and never touched again for
// the tree's lifetime.
type Config struct {
	splitThreshold       uint32
	mergeThreshold       uint32
	consolidateThreshold uint32
	mappingTableSlots    int
	maxConcurrentOps     int
	cooldownCapacity     uint32
	logger               Logger
}

func defaultConfig() Config {
	return Config{
		splitThreshold:       64,
		mergeThreshold:       16,
		consolidateThreshold: 8,
		mappingTableSlots:    1 << 20,
		maxConcurrentOps:     256,
		cooldownCapacity:     4096,
		logger:               DiscardLogger{},
	}
}

// Option configures a Tree using the functional options pattern.
type Option func(*Config)

// WithSplitThreshold sets the entry count above which a virtual node is
// split on its next mutation.
//
//goland:noinspection GoUnusedExportedFunction
func WithSplitThreshold(n uint32) Option {
	return func(c *Config) { c.splitThreshold = n }
}

// WithMergeThreshold sets the entry count below which a virtual node
// becomes a merge candidate on its next mutation.
//
//goland:noinspection GoUnusedExportedFunction
func WithMergeThreshold(n uint32) Option {
	return func(c *Config) { c.mergeThreshold = n }
}

// WithConsolidateThreshold sets the delta chain length above which an Insert
// or Delete opportunistically consolidates the virtual node it just mutated.
// Lookups and scans never consolidate.
//
//goland:noinspection GoUnusedExportedFunction
func WithConsolidateThreshold(n uint32) Option {
	return func(c *Config) { c.consolidateThreshold = n }
}

// WithMappingTableSlots sets the hard cap on concurrently live virtual
// nodes. IDs are never recycled, so this bounds total nodes ever allocated
// over the tree's lifetime, not just the live set at any one instant.
//
//goland:noinspection GoUnusedExportedFunction
func WithMappingTableSlots(n int) Option {
	return func(c *Config) { c.mappingTableSlots = n }
}

// WithMaxConcurrentOps sets the epoch guard's fixed slot count, the upper
// bound on operations active at once.
//
//goland:noinspection GoUnusedExportedFunction
func WithMaxConcurrentOps(n int) Option {
	return func(c *Config) { c.maxConcurrentOps = n }
}

// WithCooldownCapacity sets the SMO help-throttling cache's capacity.
//
//goland:noinspection GoUnusedExportedFunction
func WithCooldownCapacity(n uint32) Option {
	return func(c *Config) { c.cooldownCapacity = n }
}

// WithLogger installs a structured logger. Defaults to DiscardLogger.
//
//goland:noinspection GoUnusedExportedFunction
func WithLogger(l Logger) Option {
	return func(c *Config) { c.logger = l }
}
