// Package acl parses the external JSON ACL file format into a structure
// the session layer can pass on to SetACL (spec.md §6: "ACL definitions
// are consumed from an external JSON file by a collaborator and passed
// in as a parsed structure"). This is explicitly out of scope of the
// core transport engine (spec.md §1) and is kept deliberately thin.
package acl

import (
	"encoding/json"
	"fmt"
	"os"
)

// Entry is a single identity's access grant, mirroring the shape used by
// the original kinetic-c KineticACL_LoadFromFile (ACL identity + HMAC key
// + granted scopes).
type Entry struct {
	Identity  int64    `json:"identity"`
	Key       string   `json:"key"`
	HMACAlgo  string   `json:"hmacAlgorithm"`
	Roles     []string `json:"roles"`
	MaxValue  int64    `json:"maxValueSize,omitempty"`
}

// List is the top-level document: a named set of ACL entries.
type List struct {
	Entries []Entry `json:"acls"`
}

// LoadFile reads and parses an ACL JSON document from path.
func LoadFile(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("acl: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes an ACL JSON document already held in memory.
func Parse(data []byte) (*List, error) {
	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("acl: parse: %w", err)
	}
	if len(l.Entries) == 0 {
		return nil, fmt.Errorf("acl: document has no acls entries")
	}
	return &l, nil
}

// Encode serialises the ACL list back to the opaque bytes SetACL carries
// on the wire in Security.ACLBytes (spec.md §4.9). The wire encoding of
// an ACL document is itself an external-collaborator detail; JSON is
// reused here rather than inventing a second format.
func (l *List) Encode() ([]byte, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("acl: encode: %w", err)
	}
	return b, nil
}
