package kb

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	defaultChunkSizeChars = 1600
	defaultOverlapChars   = 200
)

// Chunk is one windowed slice of a fetched document. The id is stable
// across reindex runs as long as the source and window stay put.
type Chunk struct {
	ChunkID    string
	ChunkText  string
	ChunkIndex int
	SourceURL  string
	Title      string
}

// SplitText windows the text into overlapping chunks. The title is
// prepended to each chunk body so retrieval hits carry their context.
func SplitText(text, title, sourceURL string) []Chunk {
	return splitText(text, title, sourceURL, defaultChunkSizeChars, defaultOverlapChars)
}

func splitText(text, title, sourceURL string, chunkSize, overlap int) []Chunk {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}

	header := ""
	if title != "" {
		header = title + "\n\n"
	}

	runes := []rune(raw)
	n := len(runes)

	var chunks []Chunk
	i := 0
	idx := 0
	for i < n {
		start := i
		if idx > 0 {
			start = i - overlap
			if start < 0 {
				start = 0
			}
		}
		end := start + chunkSize
		if end > n {
			end = n
		}
		body := strings.TrimSpace(string(runes[start:end]))
		chunks = append(chunks, Chunk{
			ChunkID:    fmt.Sprintf("%d:%s", idx, stableID(sourceURL, title, start, end)),
			ChunkText:  strings.TrimSpace(header + body),
			ChunkIndex: idx,
			SourceURL:  sourceURL,
			Title:      title,
		})
		idx++
		if end >= n {
			break
		}
		i = end
	}
	return chunks
}

func stableID(sourceURL, title string, start, end int) string {
	base := fmt.Sprintf("%s|%s|%d:%d", sourceURL, title, start, end)
	sum := md5.Sum([]byte(base))
	return hex.EncodeToString(sum[:])
}
