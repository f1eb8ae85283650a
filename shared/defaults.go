package shared

const (
	// DefaultSize is the capacity of the first table a dictionary allocates
	// and the floor for every later expansion.
	DefaultSize = 4

	// DefaultForceResizeRatio is the used/size ratio above which a table grows
	// even while resizing is disabled.
	DefaultForceResizeRatio = 5

	// DefaultHashSeed seeds GenHash and GenCaseHash.
	DefaultHashSeed = 5381

	// MaxSize is the largest table size, the highest power of two an uintptr holds.
	MaxSize = ^uintptr(0)>>1 + 1
)
