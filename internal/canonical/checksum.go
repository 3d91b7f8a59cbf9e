package canonical

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainLogEntry separates log entry checksums from any other hash the
// module may compute over the same bytes. The suffix versions the scheme.
const DomainLogEntry = "memimg/entry/v1"

// Checksum computes SHA256(domain || 0x00 || data) as lowercase hex.
// The null separator keeps domain and data boundaries unambiguous.
func Checksum(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
