package adviserdesk

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

const localIDPrefix = "local-"

// ParseOwnerRef parses a "kind:id" owner reference as used in query strings.
func ParseOwnerRef(s string) (OwnerRef, error) {
	kind, id, found := strings.Cut(s, ":")
	if !found || id == "" {
		return OwnerRef{}, fmt.Errorf("invalid owner reference")
	}
	if kind != OwnerKindPrimary && kind != OwnerKindAssociated {
		return OwnerRef{}, fmt.Errorf("unknown owner kind: %s", kind)
	}
	return OwnerRef{Kind: kind, ID: id}, nil
}

func ComposeOwnerRef(ref OwnerRef) string {
	return ref.Kind + ":" + ref.ID
}

// LocalID fabricates a deterministic placeholder identifier for a record
// applied optimistically before the server has assigned one. The prefix
// keeps it from colliding with server-issued uuids.
func LocalID(seed []byte, at time.Time) string {
	buf := make([]byte, 0, len(seed)+8)
	buf = append(buf, seed...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(at.UnixNano()))
	sum := xxh3.Hash128(buf).Bytes()
	return localIDPrefix + hex.EncodeToString(sum[:])
}

// IsLocalID reports whether id was fabricated by LocalID.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}
