package risk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sigbridge/internal/logger"
)

// policySchema guards hot reloads: a policy file that fails validation never
// replaces the running snapshot.
const policySchema = `{
	"type": "object",
	"required": ["classes"],
	"properties": {
		"aliases": {
			"type": "object",
			"properties": {
				"strip_suffix": {
					"type": "object",
					"properties": {
						"from": {"type": "string"},
						"to": {"type": "string"}
					}
				},
				"map": {
					"type": "object",
					"additionalProperties": {"type": "string"}
				}
			}
		},
		"classes": {
			"type": "object",
			"minProperties": 1,
			"additionalProperties": {
				"type": "object",
				"required": ["symbols", "mode"],
				"properties": {
					"symbols": {"type": "array", "items": {"type": "string"}, "minItems": 1},
					"mode": {"enum": ["risk", "flat"]},
					"lot": {"type": "number", "minimum": 0}
				}
			}
		}
	}
}`

var compiledPolicySchema = jsonschema.MustCompileString("policy.json", policySchema)

// Registry loads the sizing policy file and watches it for changes.
type Registry struct {
	path string
	v    *viper.Viper

	mu       sync.RWMutex
	snapshot Snapshot
}

// NewRegistry reads the policy file and starts watching for updates.
func NewRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("policy registry requires a path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read policy file failed: %w", err)
	}
	r := &Registry{path: path, v: v}
	if err := r.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			// keep serving the previous snapshot
			logger.Errorf("policy reload rejected: %v", err)
		}
	})
	v.WatchConfig()
	return r, nil
}

// NewStaticRegistry wraps an in-memory policy, used by tests and by callers
// that do not want file watching.
func NewStaticRegistry(cfg PolicyFile) (*Registry, error) {
	snap, err := buildSnapshot(cfg, 1)
	if err != nil {
		return nil, err
	}
	return &Registry{snapshot: snap}, nil
}

// Snapshot returns the current policy view.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

func (r *Registry) reload() error {
	raw, err := readPolicyBytes(r.path)
	if err != nil {
		return err
	}
	if err := validatePolicy(raw); err != nil {
		return fmt.Errorf("policy file %s: %w", filepath.Base(r.path), err)
	}
	var cfg PolicyFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return fmt.Errorf("parse policy file failed: %w", err)
	}
	r.mu.Lock()
	snap, err := buildSnapshot(cfg, r.snapshot.Version+1)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.snapshot = snap
	r.mu.Unlock()
	logger.Infof("policy registry loaded %d classes, %d symbols from %s",
		len(snap.classes), len(snap.bySymbol), filepath.Base(r.path))
	return nil
}

func readPolicyBytes(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file failed: %w", err)
	}
	return raw, nil
}

// validatePolicy runs the JSON-schema check over the yaml document. The yaml
// tree is round-tripped through encoding/json so the validator sees the
// value types it expects.
func validatePolicy(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("policy not representable as JSON: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(buf, &jsonDoc); err != nil {
		return err
	}
	if err := compiledPolicySchema.Validate(jsonDoc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
