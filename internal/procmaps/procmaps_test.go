package procmaps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `00400000-00452000 r-xp 00000000 08:02 173521      /usr/bin/dbus-daemon
00651000-00652000 r--p 00051000 08:02 173521      /usr/bin/dbus-daemon
00652000-00655000 rw-p 00052000 08:02 173521      /usr/bin/dbus-daemon
garbage line
7f0000000000-7f000001a000 r-xp 00001000 08:02 135522 /usr/lib/libc so.6 (deleted)
7f0000000000 r-xp 00000000 08:02 135522 /no/range
zz-7f000001a000 r-xp 00000000 08:02 135522 /bad/hex

7fff5d9f0000-7fff5d9f2000 r-xp 00000000 00:00 0
ffffffffff600000-ffffffffff601000 --xp 00000000 00:00 0                  [vsyscall]
`

func TestParse(t *testing.T) {
	regions, err := Parse(strings.NewReader(listing))
	require.NoError(t, err)

	assert.Equal(t, []Region{
		{Start: 0x400000, End: 0x452000, Offset: 0, Perms: "r-xp", Path: "/usr/bin/dbus-daemon"},
		{Start: 0x7f0000000000, End: 0x7f000001a000, Offset: 0x1000, Perms: "r-xp", Path: "/usr/lib/libc so.6 (deleted)"},
		{Start: 0x7fff5d9f0000, End: 0x7fff5d9f2000, Offset: 0, Perms: "r-xp", Path: ""},
		{Start: 0xffffffffff600000, End: 0xffffffffff601000, Offset: 0, Perms: "--xp", Path: "[vsyscall]"},
	}, regions)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr bool
	}{
		{name: "valid", line: "55d4b2000000-55d4b2021000 r-xp 00000000 08:01 131073 /usr/bin/myprog"},
		{name: "no path", line: "55d4b2000000-55d4b2021000 r-xp 00000000 08:01 131073"},
		{name: "too few fields", line: "55d4b2000000-55d4b2021000 r-xp", wantErr: true},
		{name: "bad end", line: "55d4b2000000-xyz r-xp 00000000 08:01 131073", wantErr: true},
		{name: "bad offset", line: "55d4b2000000-55d4b2021000 r-xp 0x0g 08:01 131073", wantErr: true},
		{name: "short perms", line: "55d4b2000000-55d4b2021000 rx 00000000 08:01 131073", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcReader(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "42"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "42", "maps"), []byte(listing), 0o644))

	regions, err := NewProcReader(root, 42).ReadRegions()
	require.NoError(t, err)
	assert.Len(t, regions, 4)

	_, err = NewProcReader(root, 43).ReadRegions()
	assert.Error(t, err)
}

func TestDefaultProcRoot(t *testing.T) {
	assert.Equal(t, "/proc/7/maps", NewProcReader("", 7).Path())
}
