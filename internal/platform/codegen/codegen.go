package codegen

import (
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"
)

// maxKeyLen is the maximum key length accepted by BLAKE2b.
const maxKeyLen = 64

// Generator produces short, unguessable hex codes. Each call mixes the
// payload, the current wall-clock time and a strictly increasing call
// counter into a keyed BLAKE2b digest, so rapid successive calls with the
// same payload still yield distinct codes.
type Generator struct {
	key     []byte
	counter atomic.Uint64
}

func New(secret []byte) *Generator {
	key := secret
	if len(key) > maxKeyLen {
		key = key[:maxKeyLen]
	}
	return &Generator{key: key}
}

// Generate returns a lowercase hex code of length 2*size derived from
// payload. size is the digest size in bytes (1..64).
func (g *Generator) Generate(payload []byte, size int) string {
	h, err := blake2b.New(size, g.key)
	if err != nil {
		// size or key out of range is a programming error
		panic(err)
	}

	// 16 counter bytes: high word reserved, low word atomically incremented.
	// At one call per nanosecond the low word lasts ~580 years.
	var salt [16]byte
	binary.BigEndian.PutUint64(salt[8:], g.counter.Add(1))

	var now [8]byte
	binary.BigEndian.PutUint64(now[:], uint64(time.Now().UnixNano()))

	h.Write(payload)
	h.Write(now[:])
	h.Write(salt[:])
	return hex.EncodeToString(h.Sum(nil))
}

// Counter reports how many codes this generator has produced.
func (g *Generator) Counter() uint64 {
	return g.counter.Load()
}
