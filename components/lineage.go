package components

// Fusion records how a static particle came to be.
// Seeds placed without an anchor use AnchorIndex -1.
type Fusion struct {
	Tick        int32
	StaticIndex int
	AnchorIndex int
	StaticPort  int8 // port used on the anchor, -1 for seeds
	MovingPort  int8 // own port facing the anchor, -1 for seeds
	CaptureAge  float64
}

// Generation is the distance (in fusions) from the nearest seed.
type Generation struct {
	Depth int
}

// Offspring counts how many particles fused onto this one.
type Offspring struct {
	Count int
}
