package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	domain "github.com/inference-gateway/toolgate/internal/domain"
)

// cosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is empty, zero, or the dimensions differ
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

type vectorRow struct {
	id        string
	embedding []float32
	metadata  map[string]string
}

// rankMatches scores rows against query, drops those below minScore and
// returns the best k in descending score order
func rankMatches(rows []vectorRow, query []float32, k int, minScore float64) []domain.VectorMatch {
	if k <= 0 {
		return nil
	}

	matches := make([]domain.VectorMatch, 0, len(rows))
	for _, row := range rows {
		score := cosineSimilarity(query, row.embedding)
		if score < minScore || score <= 0 {
			continue
		}
		matches = append(matches, domain.VectorMatch{
			ID:       row.id,
			Score:    score,
			Metadata: row.metadata,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// encodeEmbedding packs a vector as little-endian float32s
func encodeEmbedding(embedding []float32) []byte {
	buf := make([]byte, 4*len(embedding))
	for i, v := range embedding {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeEmbedding(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding length %d", len(data))
	}

	embedding := make([]float32, len(data)/4)
	for i := range embedding {
		embedding[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return embedding, nil
}
