package featureflag

type Flag string

const (
	// FlagReopenClosedNodes lets path searches revisit expanded spans when a
	// cheaper route to them shows up.
	FlagReopenClosedNodes Flag = "REOPEN_CLOSED_NODES"

	// FlagDisablePathCache makes every path query run a fresh search.
	FlagDisablePathCache Flag = "DISABLE_PATH_CACHE"

	// FlagSampleRasterizer voxelizes with the point sampling rasterizer
	// instead of the recast one.
	FlagSampleRasterizer Flag = "SAMPLE_RASTERIZER"
)
