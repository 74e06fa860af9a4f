// Package dl fetches layer manifests over HTTP and turns them into a
// LoadResult that can be bound straight into a page.
package dl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/b1naryth1ef/layerlist"
)

// FallbackMessage is reported when a failure carries no message of its own.
const FallbackMessage = "failed to load shapefiles"

// Fetcher performs a single HTTP request. *http.Client satisfies it.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchFunc adapts a plain function to the Fetcher interface.
type FetchFunc func(req *http.Request) (*http.Response, error)

func (f FetchFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type Shape string

const (
	// ShapeAuto accepts either a bare array or an object with a shapefiles
	// field.
	ShapeAuto   Shape = "auto"
	ShapeArray  Shape = "array"
	ShapeObject Shape = "object"
)

// Variant names the manifest resource and the body shape served there.
type Variant struct {
	Endpoint string
	Shape    Shape
}

var (
	DefaultVariant    = Variant{Endpoint: "/shapefiles.json", Shape: ShapeAuto}
	VariantBareArray  = Variant{Endpoint: "/shapefiles.json", Shape: ShapeArray}
	VariantWrapped    = Variant{Endpoint: "/shapefiles.json", Shape: ShapeObject}
	VariantLayersList = Variant{Endpoint: "/layers-list.json", Shape: ShapeObject}
)

func VariantFromConfig(cfg *layerlist.ManifestConfigBlock) Variant {
	variant := DefaultVariant
	if cfg == nil {
		return variant
	}
	if cfg.Endpoint != "" {
		variant.Endpoint = cfg.Endpoint
	}
	if cfg.Shape != "" {
		variant.Shape = Shape(cfg.Shape)
	}
	return variant
}

// ManifestURL joins a base URL (possibly empty) and a manifest endpoint.
func ManifestURL(baseURL, endpoint string) string {
	if endpoint == "" {
		endpoint = DefaultVariant.Endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return strings.TrimSuffix(baseURL, "/") + endpoint
}

type Loader struct {
	Fetcher Fetcher
	BaseURL string
	Variant Variant
	Logger  *slog.Logger
}

// Load fetches the manifest once. It never returns an error: failures are
// logged and reported through LoadResult.Error with an empty layer list.
func (l *Loader) Load(ctx context.Context) layerlist.LoadResult {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}

	url := ManifestURL(l.BaseURL, l.Variant.Endpoint)
	layers, err := fetchManifest(ctx, l.Fetcher, url, l.Variant.Shape)
	if err != nil {
		logger.Error("failed to load shapefiles", "url", url, "error", err)
		return layerlist.LoadResult{
			AvailableShapefiles: []layerlist.LayerOption{},
			Error:               errorMessage(err),
		}
	}

	logger.Debug("loaded shapefiles", "url", url, "count", len(layers))
	return layerlist.LoadResult{
		AvailableShapefiles: layers,
	}
}

func Load(ctx context.Context, fetcher Fetcher, baseURL string, variant Variant, logger *slog.Logger) layerlist.LoadResult {
	loader := Loader{
		Fetcher: fetcher,
		BaseURL: baseURL,
		Variant: variant,
		Logger:  logger,
	}
	return loader.Load(ctx)
}

func errorMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return FallbackMessage
	}
	return msg
}

func fetchManifest(ctx context.Context, fetcher Fetcher, url string, shape Shape) ([]layerlist.LayerOption, error) {
	if fetcher == nil {
		return nil, &NetworkError{URL: url, Err: errors.New("no http client configured")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	resp, err := fetcher.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	return decodeManifest(body, shape)
}

var utf8BOM = []byte("\xef\xbb\xbf")

func decodeManifest(body []byte, shape Shape) ([]layerlist.LayerOption, error) {
	body = bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))

	var first byte
	if len(body) > 0 {
		first = body[0]
	}

	switch first {
	case '[':
		if shape == ShapeObject {
			return nil, &DecodeError{Err: errors.New("expected an object with a shapefiles field, got an array")}
		}
		return decodeLayers(body)
	case '{':
		if shape == ShapeArray {
			return nil, &DecodeError{Err: errors.New("expected an array, got an object")}
		}

		// Only the exact "shapefiles" key counts; encoding/json would also
		// accept "Shapefiles" or "SHAPEFILES" on a struct field.
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, &DecodeError{Err: err}
		}
		raw, ok := doc["shapefiles"]
		if !ok {
			return []layerlist.LayerOption{}, nil
		}
		return decodeLayers(raw)
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return nil, &DecodeError{Err: fmt.Errorf("manifest must be a JSON array or object, got %s", jsonKind(v))}
}

func decodeLayers(raw []byte) ([]layerlist.LayerOption, error) {
	var layers []layerlist.LayerOption
	if err := json.Unmarshal(raw, &layers); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return nonNil(layers), nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	}
	return fmt.Sprintf("%T", v)
}

func nonNil(layers []layerlist.LayerOption) []layerlist.LayerOption {
	if layers == nil {
		return []layerlist.LayerOption{}
	}
	return layers
}
