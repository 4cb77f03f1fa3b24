package media

type AssetType string

const (
	// AssetTypePhoto is an original photograph saved locally before upload
	AssetTypePhoto AssetType = "photo"
	// AssetTypeFragment is a cropped per-object sub-image derived from a
	// detected object's bounding box
	AssetTypeFragment AssetType = "fragment"
	AssetTypeUnknown  AssetType = "unknown"
)
