package tvmcell

// DictOption configures a Dictionary.
type DictOption func(*dictConfig)

// BoCOption configures SerializeBoC.
type BoCOption func(*bocConfig)

// dictConfig holds configuration for dictionaries.
type dictConfig struct {
	signedKeys bool
}

// defaultDictConfig returns the default dictionary configuration.
func defaultDictConfig() *dictConfig {
	return &dictConfig{
		signedKeys: false,
	}
}

// WithSignedKeys makes dictionary keys two's-complement integers.
// Default keys are unsigned.
func WithSignedKeys() DictOption {
	return func(c *dictConfig) {
		c.signedKeys = true
	}
}

// bocConfig holds configuration for bag-of-cells serialization.
type bocConfig struct {
	withIndex  bool
	withCRC32C bool
	cacheBits  bool
}

// defaultBoCConfig returns the default serialization configuration.
func defaultBoCConfig() *bocConfig {
	return &bocConfig{
		withIndex:  false,
		withCRC32C: false,
		cacheBits:  false,
	}
}

// WithIndex includes the cell offset index in the serialized blob.
func WithIndex(enabled bool) BoCOption {
	return func(c *bocConfig) {
		c.withIndex = enabled
	}
}

// WithCRC32C appends a CRC32-C checksum of the blob.
func WithCRC32C(enabled bool) BoCOption {
	return func(c *bocConfig) {
		c.withCRC32C = enabled
	}
}

// WithCacheBits sets the has_cache_bits flag. It only takes effect
// together with WithIndex.
func WithCacheBits(enabled bool) BoCOption {
	return func(c *bocConfig) {
		c.cacheBits = enabled
	}
}
