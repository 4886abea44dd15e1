package adapters

import (
	"context"
	"encoding/binary"
	"math"
	"regexp"
	"strings"

	domain "github.com/inference-gateway/toolgate/internal/domain"
	"github.com/zeebo/blake3"
)

var _ domain.Embedder = (*HashEmbedder)(nil)

const defaultHashDimensions = 256

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// HashEmbedder maps text into a fixed-size vector by feature hashing its
// tokens. It needs no network and gives useful similarity for tool names
// and descriptions that share vocabulary with the request.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a feature-hashing embedder
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = defaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Tokenize lower-cases text and splits it into alphanumeric runs. Snake
// and kebab case identifiers split into their words.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Embed returns the L2-normalised hashed token vector of text
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector := make([]float32, e.dimensions)

	for _, token := range Tokenize(text) {
		e.add(vector, token, 1)
		if len(token) >= 4 {
			// prefix feature so "files" and "file" land close together
			e.add(vector, "p:"+token[:4], 0.5)
		}
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector, nil
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector, nil
}

func (e *HashEmbedder) add(vector []float32, feature string, weight float32) {
	sum := blake3.Sum256([]byte(feature))
	index := binary.LittleEndian.Uint64(sum[:8]) % uint64(e.dimensions)
	if sum[8]&1 == 1 {
		weight = -weight
	}
	vector[index] += weight
}
