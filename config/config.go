// Package config reads the static route definitions of the service.
// The file is loaded once at startup.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/adamluzsi/persistroute/actions"
	"github.com/adamluzsi/persistroute/capture"
	"github.com/adamluzsi/persistroute/pkg/errorutil"
	"gopkg.in/yaml.v2"
)

const ErrInvalid errorutil.Error = "ErrInvalidConfiguration"

const (
	StorageMemory   = "memory"
	StorageBolt     = "bolt"
	StoragePostgres = "postgres"
)

const DefaultMaxMemory = 32 << 20

type Config struct {
	// Keys are the reserved controller keys used by every route.
	Keys    Keys    `yaml:"keys"`
	Upload  Upload  `yaml:"upload"`
	Storage Storage `yaml:"storage"`
	// Layout is an optional HTML template that wraps every route template.
	Layout string `yaml:"layout"`
	// MaxMemory bounds the bytes of a multipart form kept in memory.
	MaxMemory int64   `yaml:"max_memory"`
	Routes    []Route `yaml:"routes"`
}

type Keys struct {
	Action string `yaml:"action"`
	Entity string `yaml:"entity"`
	ID     string `yaml:"id"`
}

func (k Keys) Actions() actions.Keys {
	return actions.Keys{Action: k.Action, Entity: k.Entity, ID: k.ID}
}

type Upload struct {
	Directory      string `yaml:"directory"`
	RelativePrefix string `yaml:"relative_prefix"`
}

type Storage struct {
	Driver      string `yaml:"driver"`
	BoltPath    string `yaml:"bolt_path"`
	DatabaseURL string `yaml:"database_url"`
}

type Route struct {
	Method  string `yaml:"method"`
	Pattern string `yaml:"pattern"`
	// Entity fixes the entity type of the route, instead of reading it from the captures.
	Entity string `yaml:"entity"`
	// Action is dispatched when the captures select none.
	Action   string `yaml:"action"`
	Template string `yaml:"template"`
	// Captures lists the capture collections, each dispatched as a separate action in order.
	Captures [][]Capture `yaml:"captures"`
}

type Capture struct {
	Name string `yaml:"capture"`
	// Key is the controller key the value is bound to; it defaults to Name.
	Key      string `yaml:"key"`
	Required bool   `yaml:"required"`
}

func (r Route) Collections() []capture.Collection {
	collections := make([]capture.Collection, 0, len(r.Captures))
	for _, defs := range r.Captures {
		collection := make(capture.Collection, 0, len(defs))
		for _, def := range defs {
			key := def.Key
			if key == "" {
				key = def.Name
			}
			if def.Required {
				collection = append(collection, capture.Required(def.Name, key))
			} else {
				collection = append(collection, capture.Optional(def.Name, key))
			}
		}
		collections = append(collections, collection)
	}
	return collections
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, errorutil.With{Err: ErrInvalid}.Detail(err.Error())
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) setDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.MaxMemory == 0 {
		c.MaxMemory = DefaultMaxMemory
	}
	for i := range c.Routes {
		c.Routes[i].Method = strings.ToUpper(c.Routes[i].Method)
		if c.Routes[i].Method == "" {
			c.Routes[i].Method = http.MethodGet
		}
	}
}

var methods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodHead:   {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errorutil.With{Err: ErrInvalid}.Detailf(format, args...)
	}
	switch c.Storage.Driver {
	case StorageMemory, StorageBolt, StoragePostgres:
	default:
		return invalid("unknown storage driver: %s", c.Storage.Driver)
	}
	if c.MaxMemory < 0 {
		return invalid("max_memory can't be negative")
	}
	if len(c.Routes) == 0 {
		return invalid("no route is configured")
	}
	seen := make(map[string]struct{})
	for i, r := range c.Routes {
		if _, ok := methods[r.Method]; !ok {
			return invalid("route #%d has unsupported method: %s", i, r.Method)
		}
		if !strings.HasPrefix(r.Pattern, "/") {
			return invalid("route #%d pattern must start with a slash: %q", i, r.Pattern)
		}
		if r.Action != "" {
			if _, err := actions.ParseAction(r.Action); err != nil {
				return invalid("route #%d has unsupported action: %s", i, r.Action)
			}
		}
		id := r.Method + " " + r.Pattern
		if _, ok := seen[id]; ok {
			return invalid("route #%d is defined more than once: %s", i, id)
		}
		seen[id] = struct{}{}
		for j, defs := range r.Captures {
			for _, def := range defs {
				if def.Name == "" {
					return invalid("route #%d capture collection #%d has a capture without name", i, j)
				}
				if def.Required && !strings.Contains(r.Pattern, ":"+def.Name) && !strings.Contains(r.Pattern, "*"+def.Name) {
					return invalid("route #%d requires capture %s, but the pattern has no such segment", i, def.Name)
				}
			}
		}
	}
	return nil
}

func (r Route) String() string {
	return fmt.Sprintf("%s %s", r.Method, r.Pattern)
}
