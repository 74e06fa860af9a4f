package web

import (
	"encoding/json"
	"html/template"
	"io"

	"github.com/b1naryth1ef/layerlist"
)

// PageData is what the index template is executed with.
type PageData struct {
	Title   string
	Layers  []LayerData
	Error   string
	Payload template.JS
}

type LayerData struct {
	layerlist.LayerOption
	Color string
}

// FrontendData is serialized into the page for js/layers.js.
type FrontendData struct {
	AvailableShapefiles []layerlist.LayerOption `json:"availableShapefiles"`
	Error               string                  `json:"error,omitempty"`
	Colors              map[string]string       `json:"colors"`
}

const DefaultTitle = "Shapefile layers"

// NewPageData binds a load result into template data.
func NewPageData(result layerlist.LoadResult) (PageData, error) {
	colors := layerlist.LegendColors(result.AvailableShapefiles)

	data := PageData{
		Title:  DefaultTitle,
		Layers: make([]LayerData, 0, len(result.AvailableShapefiles)),
		Error:  result.Error,
	}
	for _, layer := range result.AvailableShapefiles {
		data.Layers = append(data.Layers, LayerData{
			LayerOption: layer,
			Color:       colors[layer.Name],
		})
	}

	shapefiles := result.AvailableShapefiles
	if shapefiles == nil {
		shapefiles = []layerlist.LayerOption{}
	}

	payload, err := json.Marshal(FrontendData{
		AvailableShapefiles: shapefiles,
		Error:               result.Error,
		Colors:              colors,
	})
	if err != nil {
		return data, err
	}
	data.Payload = template.JS(payload)

	return data, nil
}

var indexTemplate = template.Must(template.New("index.html").Parse(indexHTML))

func Render(w io.Writer, data PageData) error {
	return indexTemplate.Execute(w, data)
}
