package ntdf

// ShouldRotateBeforeKeyframe always returns true: §4.5 requires rotating the
// collection before encrypting every video keyframe, independent of counter
// state.
func ShouldRotateBeforeKeyframe() bool { return true }

// ShouldRotate reports whether isKeyframe or the counter ceiling forces a new
// collection before the next item is encrypted.
func (c *Collection) ShouldRotate(isKeyframe bool) bool {
	return isKeyframe || c.NeedsRotation()
}
