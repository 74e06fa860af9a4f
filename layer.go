package layerlist

// LayerOption describes one selectable map layer as listed in a manifest.
type LayerOption struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// LoadResult is the outcome of one manifest load. Error is only set when the
// fetch or decode failed, in which case AvailableShapefiles is empty.
type LoadResult struct {
	AvailableShapefiles []LayerOption `json:"availableShapefiles"`
	Error               string        `json:"error,omitempty"`
}

func (r LoadResult) Failed() bool {
	return r.Error != ""
}
