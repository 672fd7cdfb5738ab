package acl

import "testing"

func TestParseValidDocument(t *testing.T) {
	data := []byte(`{"acls":[{"identity":1,"key":"secret","hmacAlgorithm":"SHA1","roles":["READ","WRITE"]}]}`)
	l, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}
	if len(l.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(l.Entries))
	}
	if l.Entries[0].Identity != 1 || l.Entries[0].Key != "secret" {
		t.Errorf("unexpected entry: %+v", l.Entries[0])
	}
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	if _, err := Parse([]byte(`{"acls":[]}`)); err == nil {
		t.Fatal("expected error for a document with no acls entries")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestEncodeRoundTrips(t *testing.T) {
	original := &List{Entries: []Entry{{Identity: 2, Key: "k", Roles: []string{"READ"}}}}
	encoded, err := original.Encode()
	if err != nil {
		t.Fatalf("Encode() = %v", err)
	}
	decoded, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse(encoded) = %v", err)
	}
	if decoded.Entries[0].Identity != 2 || decoded.Entries[0].Key != "k" {
		t.Errorf("round trip mismatch: %+v", decoded.Entries[0])
	}
}

func TestLoadFileMissingPath(t *testing.T) {
	if _, err := LoadFile("/nonexistent/path/to/acl.json"); err == nil {
		t.Fatal("expected error for a missing file")
	}
}
