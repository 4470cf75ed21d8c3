package uvfix

// ClampTable accumulates, per texture, whether every vertex block drawn
// with it allows clamping.
type ClampTable map[uint32]Clamp

// Record folds one block's result into the table. A block that was not
// snapped forbids clamping on both axes.
func (c ClampTable) Record(texture uint32, result Result) {
	clamp := Clamp{}
	if result.Applied {
		clamp = result.Clamp
	}

	existing, ok := c[texture]
	if !ok {
		existing = Clamp{S: true, T: true}
	}

	c[texture] = Clamp{
		S: existing.S && clamp.S,
		T: existing.T && clamp.T,
	}
}

// Get returns the clamp flags of a texture. Unknown textures are never
// clamped.
func (c ClampTable) Get(texture uint32) Clamp {
	return c[texture]
}
