package layerlist

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

const (
	DefaultTimeout  = 10
	DefaultListen   = ":8080"
	DefaultEndpoint = "/shapefiles.json"
	DefaultShape    = "auto"
)

type Config struct {
	Timeout  int                  `hcl:"timeout,optional"`
	Manifest *ManifestConfigBlock `hcl:"manifest,block"`
	Outputs  []*OutputConfigBlock `hcl:"output,block"`
	Server   *ServerConfigBlock   `hcl:"server,block"`
}

type ManifestConfigBlock struct {
	BaseURL  string `hcl:"base_url,optional"`
	Endpoint string `hcl:"endpoint,optional"`
	Shape    string `hcl:"shape,optional"`
}

type OutputConfigBlock struct {
	Name          string `hcl:"name,label"`
	Path          string `hcl:"path"`
	IncludeStatic bool   `hcl:"include_static,optional"`
}

type ServerConfigBlock struct {
	Listen    string `hcl:"listen,optional"`
	StaticDir string `hcl:"static_dir,optional"`
}

// envFunc lets config files pull values such as the manifest base URL from
// the environment. Unset variables evaluate to an empty string.
var envFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(os.Getenv(args[0].AsString())), nil
	},
})

func newHCLEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"env": envFunc,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(path, src)
}

// ParseConfig decodes HCL source. The filename is used for diagnostics and
// must end in .hcl.
func ParseConfig(filename string, src []byte) (*Config, error) {
	var cfg Config
	err := hclsimple.Decode(filename, src, newHCLEvalContext(), &cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Manifest == nil {
		c.Manifest = &ManifestConfigBlock{}
	}
	if c.Manifest.Endpoint == "" {
		c.Manifest.Endpoint = DefaultEndpoint
	}
	if c.Manifest.Shape == "" {
		c.Manifest.Shape = DefaultShape
	}
	if c.Server == nil {
		c.Server = &ServerConfigBlock{}
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
}

func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", c.Timeout)
	}

	if c.Manifest != nil {
		switch c.Manifest.Shape {
		case "auto", "array", "object":
		default:
			return fmt.Errorf("manifest shape must be one of auto, array, object; got %q", c.Manifest.Shape)
		}
	}

	seen := map[string]bool{}
	for _, output := range c.Outputs {
		if seen[output.Name] {
			return fmt.Errorf("duplicate output %q", output.Name)
		}
		seen[output.Name] = true
	}
	return nil
}

// HTTPTimeout is the timeout applied to the manifest HTTP client.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c *Config) GetOutput(name string) *OutputConfigBlock {
	for _, output := range c.Outputs {
		if output.Name == name {
			return output
		}
	}
	return nil
}
