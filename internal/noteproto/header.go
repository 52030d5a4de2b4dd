// Package noteproto decodes the fixed header fields the relay cares
// about (id, tag) out of an otherwise opaque, sender-defined header
// blob. Everything past the tag field is sender metadata the relay
// never inspects.
package noteproto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// IDSize is the length in bytes of a note's content identifier.
const IDSize = 32

// HeaderMinLen is the smallest header the decoder accepts: a 32-byte id
// followed by a 4-byte big-endian tag. Anything after that is opaque
// sender metadata and is preserved verbatim but never parsed.
const HeaderMinLen = IDSize + 4

// ErrHeaderTooShort is returned when a header is too short to carry an
// id and a tag.
var ErrHeaderTooShort = errors.New("noteproto: header too short")

// ID is a note's content identifier: the Store's primary key.
type ID [IDSize]byte

// String renders an ID as hex, mainly for logging.
func (id ID) String() string {
	return fmt.Sprintf("%x", id[:])
}

// Header is the parsed view of a note header: everything the relay is
// allowed to look at.
type Header struct {
	ID  ID
	Tag uint32
}

// DecodeHeader extracts ID and Tag from a raw header. It never looks at
// bytes past HeaderMinLen; the sender is free to pack arbitrary
// metadata there.
func DecodeHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderMinLen {
		return Header{}, ErrHeaderTooShort
	}
	var h Header
	copy(h.ID[:], raw[:IDSize])
	h.Tag = binary.BigEndian.Uint32(raw[IDSize : IDSize+4])
	return h, nil
}

// EncodeHeader builds a minimal header carrying only id and tag,
// useful for tests and for the CLI front-end's local tooling. Real
// senders are free to append arbitrary metadata after the tag.
func EncodeHeader(id ID, tag uint32, metadata []byte) []byte {
	out := make([]byte, HeaderMinLen+len(metadata))
	copy(out[:IDSize], id[:])
	binary.BigEndian.PutUint32(out[IDSize:IDSize+4], tag)
	copy(out[HeaderMinLen:], metadata)
	return out
}
