package service

import (
	"encoding/binary"

	"github.com/zeebo/blake3"
)

// Blake3Hasher hashes with BLAKE3-256
type Blake3Hasher struct{}

func (Blake3Hasher) Sum(data []byte) [32]byte {
	h := blake3.New()
	_, _ = h.Write(data)

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// DiceOutcomes derives dice values from hashed seed material.
//
// The seeds are the unit of work's elapsed time and similar low-entropy values.
// Anyone able to predict or influence them can predict the outcome, so this is
// only suitable while outcomes stay hidden until commit.
type DiceOutcomes struct {
	hasher Hasher
	sides  int
}

// NewDiceOutcomes creates a generator for outcomes in 1..sides
func NewDiceOutcomes(hasher Hasher, sides int) *DiceOutcomes {
	return &DiceOutcomes{hasher: hasher, sides: sides}
}

func (d *DiceOutcomes) Sides() int {
	return d.sides
}

// Derive hashes the length-prefixed seeds and reduces the digest's leading
// 64 bits (big-endian) modulo the number of sides.
func (d *DiceOutcomes) Derive(seeds ...[]byte) (int, [32]byte) {
	size := 0
	for _, s := range seeds {
		size += 4 + len(s)
	}

	buf := make([]byte, 0, size)
	for _, s := range seeds {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}

	digest := d.hasher.Sum(buf)
	return OutcomeFromDigest(digest, d.sides), digest
}

// OutcomeFromDigest maps a digest into 1..sides
func OutcomeFromDigest(digest [32]byte, sides int) int {
	v := binary.BigEndian.Uint64(digest[:8])
	return int(v%uint64(sides)) + 1
}

// Int64Seed encodes an integer seed
func Int64Seed(v int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}
