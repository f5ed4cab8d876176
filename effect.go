package assetpack

// Effect is a graphics effect built from compiled shader bytecode. Effects
// that also implement io.Closer are closed when the cache evicts them, which
// is where a host releases its GPU objects.
type Effect interface {
	Name() string
}

// EffectFactory builds an Effect from the raw content of the named asset.
type EffectFactory func(name string, data []byte) (Effect, error)

// RawEffect is the default Effect: the undecoded content, for hosts that
// compile it against their own graphics device.
type RawEffect struct {
	name string
	data []byte
}

// NewRawEffect is the default EffectFactory.
func NewRawEffect(name string, data []byte) (Effect, error) {
	return &RawEffect{name: name, data: data}, nil
}

// Name returns the asset name.
func (e *RawEffect) Name() string { return e.name }

// Bytes returns the content. The slice must not be modified.
func (e *RawEffect) Bytes() []byte { return e.data }
