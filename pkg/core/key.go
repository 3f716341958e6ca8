package core

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key is the stable identity of a widget, derived from its declared name.
type Key uint64

// NoKey is never produced by KeyFromName.
const NoKey Key = 0

// idSeparator splits a name into a displayed label and an identity suffix:
// "Save##toolbar" and "Save##dialog" are distinct widgets that both show
// "Save".
const idSeparator = "##"

// KeyFromName hashes name with xxHash64. The whole name, including any
// "##" suffix, participates in the hash.
func KeyFromName(name string) Key {
	return nonZero(xxhash.Sum64String(name))
}

// KeyFromNameSeeded hashes name within the scope of seed, so equal names
// under different seeds get different keys.
func KeyFromNameSeeded(seed Key, name string) Key {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(name)
	return nonZero(d.Sum64())
}

// DisplayText returns the part of name before the first "##".
func DisplayText(name string) string {
	if i := strings.Index(name, idSeparator); i >= 0 {
		return name[:i]
	}
	return name
}

func nonZero(h uint64) Key {
	if h == 0 {
		return 1
	}
	return Key(h)
}
