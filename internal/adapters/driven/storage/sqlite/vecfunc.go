package sqlite

import (
	"database/sql/driver"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"modernc.org/sqlite"
)

// similarityFunc is the SQL name of the cosine similarity function.
const similarityFunc = "rag_cosine_similarity"

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFunctions installs the scalar functions on the sqlite driver.
// Registration is process-wide and applies to connections opened later.
func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = sqlite.RegisterDeterministicScalarFunction(similarityFunc, 2, cosineSimilarityFunc)
	})
	return registerErr
}

// cosineSimilarityFunc implements rag_cosine_similarity(a BLOB, b BLOB).
// NULL arguments yield NULL so a row without an embedding sorts last.
func cosineSimilarityFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, okA := args[0].([]byte)
	b, okB := args[1].([]byte)
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	if !okA || !okB {
		return nil, errors.New(similarityFunc + ": arguments must be float32 blobs")
	}
	return cosineSimilarityBytes(a, b)
}

// cosineSimilarityBytes compares two little-endian float32 blobs without
// decoding them into slices. A zero-magnitude vector scores 0.
func cosineSimilarityBytes(a, b []byte) (float64, error) {
	if len(a) != len(b) || len(a)%4 != 0 {
		return 0, fmt.Errorf("%s: dimension mismatch (%d vs %d bytes)", similarityFunc, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := 0; i < len(a); i += 4 {
		x := float64(math.Float32frombits(binary.LittleEndian.Uint32(a[i:])))
		y := float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i:])))
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
