package grammar

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainGrammar is the domain prefix for grammar content hashes.
// The version suffix allows the encoding to change later.
const DomainGrammar = "grammatch/grammar/v1"

// Hash returns a content hash of the grammar.
//
// Format: hex(SHA256(domain + 0x00 + String())). Two grammars with the same
// rules hash equally regardless of construction order. Literals are hashed
// as the exact runes the recognizer compares; canonically equivalent but
// distinct symbols hash differently.
func (g *Grammar) Hash() string {
	h := sha256.New()
	h.Write([]byte(DomainGrammar))
	h.Write([]byte{0x00})
	h.Write([]byte(g.String()))
	return hex.EncodeToString(h.Sum(nil))
}
