package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// TenantConfig describes one customer organization. Schema provisioning is
// owned externally; the registry only maps identity and domains.
type TenantConfig struct {
	TenantID string   `json:"tenant_id"`
	Name     string   `json:"name"`
	Domains  []string `json:"domains"`
}

type TenantsFile struct {
	Tenants []TenantConfig `json:"tenants"`
}

type Registry struct {
	mu      sync.RWMutex
	tenants map[string]*TenantConfig
	domains map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		tenants: make(map[string]*TenantConfig),
		domains: make(map[string]string),
	}
}

func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenants config: %w", err)
	}

	var file TenantsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tenants config: %w", err)
	}

	registry := NewRegistry()
	for i := range file.Tenants {
		registry.Register(&file.Tenants[i])
	}
	return registry, nil
}

func (r *Registry) Register(cfg *TenantConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[cfg.TenantID] = cfg
	for _, d := range cfg.Domains {
		r.domains[strings.ToLower(d)] = cfg.TenantID
	}
}

func (r *Registry) Get(tenantID string) *TenantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tenants[tenantID]
}

func (r *Registry) Exists(tenantID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tenants[tenantID]
	return ok
}

// ResolveDomain maps a request host (optionally with port) to a tenant id.
// Returns "" when the domain is unknown.
func (r *Registry) ResolveDomain(host string) string {
	host = strings.ToLower(host)
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.domains[host]
}

func (r *Registry) All() []*TenantConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*TenantConfig, 0, len(r.tenants))
	for _, cfg := range r.tenants {
		result = append(result, cfg)
	}
	return result
}
