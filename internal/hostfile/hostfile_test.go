package hostfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_Basic verifies a two-host file with explicit slots.
func TestParse_Basic(t *testing.T) {
	hosts, err := Parse([]byte(`
hosts:
  - address: 10.0.0.1
    slots: 4
  - address: 10.0.0.2
    slots: 2
`))
	require.NoError(t, err)
	require.Len(t, hosts, 2)

	assert.Equal(t, Host{Address: "10.0.0.1", Slots: 4}, hosts[0])
	assert.Equal(t, Host{Address: "10.0.0.2", Slots: 2}, hosts[1])
	assert.Equal(t, 6, hosts.TotalSlots())
}

// TestParse_DefaultSlots verifies that an omitted slots field defaults
// to one worker slot.
func TestParse_DefaultSlots(t *testing.T) {
	hosts, err := Parse([]byte("hosts:\n  - address: node-a\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, hosts[0].Slots)
}

// TestParse_Errors verifies the rejection cases: empty file, missing
// address, negative slots, malformed YAML.
func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "hosts: []\n", "no hosts"},
		{"no address", "hosts:\n  - slots: 2\n", "no address"},
		{"negative slots", "hosts:\n  - address: n1\n    slots: -1\n", "negative slots"},
		{"malformed", "hosts: {{", "failed to parse"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

// TestHostList_String verifies the -H rendering the launcher consumes.
func TestHostList_String(t *testing.T) {
	hosts := HostList{
		{Address: "10.0.0.1", Slots: 4},
		{Address: "10.0.0.2", Slots: 2},
	}
	assert.Equal(t, "10.0.0.1:4,10.0.0.2:2", hosts.String())
}

// TestParseFile verifies the read-then-parse path, including the missing
// file error.
func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.yml")
	require.NoError(t, os.WriteFile(path, []byte("hosts:\n  - address: n1\n    slots: 8\n"), 0o644))

	hosts, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "n1:8", hosts.String())

	_, err = ParseFile(filepath.Join(dir, "absent.yml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read hostfile")
}
