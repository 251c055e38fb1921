// Package facehash derives the on-chain face fingerprint from a facial
// descriptor vector and provides the linear nearest-neighbor matching used by
// the demo clients. The fingerprint is a SHA-256 digest over a canonical
// encoding of the descriptor, so equal vectors always map to the same
// fingerprint and the registry's uniqueness contract holds.
package facehash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// DescriptorLen is the vector length produced by the browser face model.
const DescriptorLen = 128

// Canonical encodes a descriptor as a fixed-width byte string: a big-endian
// uint32 length followed by each component's IEEE-754 bits big-endian.
func Canonical(descriptor []float64) []byte {
	buf := make([]byte, 4+8*len(descriptor))
	binary.BigEndian.PutUint32(buf, uint32(len(descriptor)))
	for i, v := range descriptor {
		binary.BigEndian.PutUint64(buf[4+8*i:], math.Float64bits(v))
	}
	return buf
}

// Fingerprint returns the hex SHA-256 digest of the canonical encoding.
func Fingerprint(descriptor []float64) string {
	sum := sha256.Sum256(Canonical(descriptor))
	return hex.EncodeToString(sum[:])
}

// CosineDistance computes the cosine distance between two vectors.
// Returns a value between 0 (identical direction) and 2 (opposite);
// mismatched or zero vectors read as maximally distant.
func CosineDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 2.0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return 1 - similarity
}

// Candidate is one registered descriptor in a match scan.
type Candidate struct {
	Fingerprint string
	Descriptor  []float64
}

// NearestMatch linearly scans candidates for the descriptor closest to probe.
// It returns false when no candidate is within maxDistance. The tolerance is
// a caller decision, not a constant of this package.
func NearestMatch(candidates []Candidate, probe []float64, maxDistance float64) (Candidate, float64, bool) {
	best := Candidate{}
	bestDistance := math.Inf(1)
	for _, c := range candidates {
		if d := CosineDistance(c.Descriptor, probe); d < bestDistance {
			best = c
			bestDistance = d
		}
	}
	if bestDistance > maxDistance {
		return Candidate{}, bestDistance, false
	}
	return best, bestDistance, true
}
