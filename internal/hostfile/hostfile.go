// Package hostfile parses YAML hostfiles for multi-node training launches.
//
// A hostfile lists the machines participating in a distributed job and
// how many worker slots each contributes:
//
//	hosts:
//	  - address: 10.0.0.1
//	    slots: 4
//	  - address: 10.0.0.2
//	    slots: 4
//
// The parsed list renders to the comma-separated "address:slots" form
// the downstream launcher accepts via its -H flag.
package hostfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/mljob/internal/model"
)

// Host is one machine entry in the hostfile.
type Host struct {
	// Address is the hostname or IP the launcher connects to.
	Address string `yaml:"address"`

	// Slots is the number of worker slots this host contributes.
	// Omitted or zero defaults to 1.
	Slots int `yaml:"slots,omitempty"`
}

// HostList is the ordered set of hosts from a hostfile.
type HostList []Host

// document is the top-level YAML structure of a hostfile.
type document struct {
	Hosts []Host `yaml:"hosts"`
}

// Parse decodes hostfile YAML into a HostList, applying the slot default
// and validating each entry.
func Parse(data []byte) (HostList, error) {
	var doc document
	// yaml.Unmarshal rejects unknown top-level scalars but tolerates
	// extra mapping keys, so operator annotations in the file are fine.
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse hostfile: %w", err)
	}
	if len(doc.Hosts) == 0 {
		return nil, fmt.Errorf("hostfile defines no hosts")
	}

	hosts := make(HostList, 0, len(doc.Hosts))
	for i, h := range doc.Hosts {
		if h.Address == "" {
			return nil, fmt.Errorf("hostfile entry %d has no address", i)
		}
		if h.Slots < 0 {
			return nil, fmt.Errorf("hostfile entry %q has negative slots", h.Address)
		}
		if h.Slots == 0 {
			h.Slots = 1
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

// ParseFile reads and parses the hostfile at the given path.
func ParseFile(path string) (HostList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitConfigError,
			fmt.Sprintf("failed to read hostfile %s", path),
			err,
		)
	}
	hosts, err := Parse(data)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, path, err)
	}
	return hosts, nil
}

// TotalSlots returns the sum of worker slots across all hosts.
// The train command warns when the requested process count exceeds this.
func (l HostList) TotalSlots() int {
	total := 0
	for _, h := range l {
		total += h.Slots
	}
	return total
}

// String renders the list in the launcher's -H format:
// "addr1:slots1,addr2:slots2".
func (l HostList) String() string {
	parts := make([]string, 0, len(l))
	for _, h := range l {
		parts = append(parts, fmt.Sprintf("%s:%d", h.Address, h.Slots))
	}
	return strings.Join(parts, ",")
}
