package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	profileRecordPrefix      = "prorec"
	profileOrderPrefix       = "proord"
	profileOrderLookupPrefix = "proordid"
	profileOrderSeq          = "proordctr"
	indexVersionKey          = "idxver"
)

// makeProfileKey generates a key for a profile record by its external ID.
func makeProfileKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", profileRecordPrefix, id))
}

// makeProfileOrderKey generates a composite key for the insertion-order index.
// Format: prefix:seq
func makeProfileOrderKey(seq uint64) []byte {
	prefix := profileOrderPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for the sequence number
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeProfileOrderLookupKey generates the reverse-lookup key mapping a
// profile ID to its insertion-order sequence number.
func makeProfileOrderLookupKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", profileOrderLookupPrefix, id))
}

// profileOrderKeyPrefix returns the prefix all insertion-order index keys share.
func profileOrderKeyPrefix() []byte {
	return []byte(profileOrderPrefix + ":")
}

// makeIndexVersionKey generates the key for the index version marker.
func makeIndexVersionKey() []byte {
	return []byte(indexVersionKey)
}
