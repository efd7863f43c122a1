// Package registry resolves UMA contract addresses per network.
package registry

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Well-known contract names.
const (
	StoreContract         = "Store"
	LSPCreatorContract    = "LongShortPairCreator"
	fplContractNameSuffix = "LongShortPairFinancialProductLibrary"
)

// ErrNotFound is returned when a network has no address for a contract.
var ErrNotFound = errors.New("address not found")

// FinancialProductLibrary returns the registry name of an FPL family, e.g. RangeBond ->
// RangeBondLongShortPairFinancialProductLibrary.
func FinancialProductLibrary(family string) string {
	return family + fplContractNameSuffix
}

// file is the on-disk layout:
//
//	networks:
//	  "1":
//	    Store: "0x..."
//	    LongShortPairCreator: "0x..."
type file struct {
	Networks map[string]map[string]string `yaml:"networks"`
}

// Registry is a read-mostly address book keyed by network id and contract name.
// Contract names are matched case-insensitively.
type Registry struct {
	mu       sync.RWMutex
	networks map[uint64]map[string]common.Address
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{networks: make(map[uint64]map[string]common.Address)}
}

// Load reads a registry from a YAML file.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}
	r, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("registry file %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a registry from YAML bytes.
func Parse(raw []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode registry: %w", err)
	}

	r := New()
	for netKey, contracts := range f.Networks {
		networkID, err := strconv.ParseUint(strings.TrimSpace(netKey), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid network id %q: %w", netKey, err)
		}
		for name, addr := range contracts {
			if !common.IsHexAddress(addr) {
				return nil, fmt.Errorf("network %d: invalid address %q for %s", networkID, addr, name)
			}
			r.Set(networkID, name, common.HexToAddress(addr))
		}
	}
	return r, nil
}

// Set records an address, replacing any previous entry.
func (r *Registry) Set(networkID uint64, name string, addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.networks[networkID] == nil {
		r.networks[networkID] = make(map[string]common.Address)
	}
	r.networks[networkID][normalize(name)] = addr
}

// Address resolves name on networkID.
func (r *Registry) Address(networkID uint64, name string) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addr, ok := r.networks[networkID][normalize(name)]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: no %s address for network %d", ErrNotFound, name, networkID)
	}
	return addr, nil
}

// Networks returns the number of configured networks.
func (r *Registry) Networks() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.networks)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
