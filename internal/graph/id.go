package graph

import (
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// idDigestSize is the width of the node/edge/file-content digest. BLAKE2b
// supports any output width up to 64 bytes; 16 bytes (128 bits) is the
// collision-tolerant width the spec calls for, trimmed further by idPrefixLen
// for node/edge ids so they stay short in logs and tool output.
const idDigestSize = 16

// idPrefixLen is how many hex characters of the digest become the node/edge id.
const idPrefixLen = 24

func digest(parts ...string) string {
	h, err := blake2b.New(idDigestSize, nil)
	if err != nil {
		// idDigestSize is a valid blake2b size (1..64); this cannot happen.
		panic(err)
	}
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0}) // separator so ("ab","c") != ("a","bc")
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NodeID derives the stable id for a node from (filePath, type, name, lineStart).
// Re-parsing identical file content yields identical ids (spec §3, §8).
func NodeID(filePath string, typ NodeType, name string, lineStart int) string {
	full := digest(filePath, string(typ), name, strconv.Itoa(lineStart))
	return full[:idPrefixLen]
}

// EdgeID derives the stable id for an edge from (sourceId, targetId, type).
func EdgeID(sourceID, targetID string, typ EdgeType) string {
	full := digest(sourceID, targetID, string(typ))
	return full[:idPrefixLen]
}

// ContentHash computes the FileHash digest for a file's raw bytes.
func ContentHash(content []byte) string {
	h, err := blake2b.New(idDigestSize, nil)
	if err != nil {
		panic(err)
	}
	_, _ = h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
