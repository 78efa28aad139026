package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jucity/ai-manager-backend/internal/logger"
)

const (
	payloadChunkIDKey = "chunk_id"
	maxErrorBodyBytes = 1024
)

var pointIDNamespaceUUID = uuid.MustParse("d2a5c3a1-7b4e-4f02-9a34-2f6fb1a6a9d4")

// Point is one embedded chunk headed for a collection.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// ScoredPoint is one search hit with its payload.
type ScoredPoint struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// VectorStore manages per-index collections. Every rebuilt knowledge
// base gets a fresh collection; activation flips a pointer elsewhere.
type VectorStore interface {
	EnsureCollection(ctx context.Context, collection string, dim int) error
	DeleteCollection(ctx context.Context, collection string) error
	UpsertPoints(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, topK int, nowEpoch int64) ([]ScoredPoint, error)
}

type vectorStore struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client
}

type qdrantEnvelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
	Time   float64         `json:"time"`
}

type qdrantSearchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

func NewVectorStore(log *logger.Logger, cfg Config) (VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg, true); err != nil {
		return nil, err
	}

	s := &vectorStore{
		log:     log.With("service", "QdrantVectorStore"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}

	if err := s.verifyReady(context.Background()); err != nil {
		return nil, err
	}

	log.Info(
		"Qdrant vector store ready",
		"url", s.baseURL,
		"vector_dim", cfg.VectorDim,
	)
	return s, nil
}

func (s *vectorStore) EnsureCollection(ctx context.Context, collection string, dim int) error {
	const op = "ensure_collection"
	if strings.TrimSpace(collection) == "" {
		return opErr(op, OperationErrorValidation, "collection name required", nil)
	}
	if dim <= 0 {
		dim = s.cfg.VectorDim
	}

	err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(collection, ""), nil, nil)
	if err == nil {
		return nil
	}
	var oe *OperationError
	if !errors.As(err, &oe) || oe.StatusCode != http.StatusNotFound {
		return err
	}

	req := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath(collection, ""), req, nil)
}

func (s *vectorStore) DeleteCollection(ctx context.Context, collection string) error {
	const op = "delete_collection"
	if strings.TrimSpace(collection) == "" {
		return opErr(op, OperationErrorValidation, "collection name required", nil)
	}
	err := s.doJSON(ctx, op, http.MethodDelete, s.collectionPath(collection, ""), nil, nil)
	var oe *OperationError
	if errors.As(err, &oe) && oe.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

func (s *vectorStore) UpsertPoints(ctx context.Context, collection string, points []Point) error {
	const op = "upsert"
	if len(points) == 0 {
		return nil
	}

	body := make([]map[string]any, 0, len(points))
	for _, p := range points {
		pointID := strings.TrimSpace(p.ID)
		if pointID == "" {
			return opErr(op, OperationErrorValidation, "point id is required", nil)
		}
		if len(p.Vector) == 0 {
			return opErr(op, OperationErrorValidation, fmt.Sprintf("point %q has empty vector", pointID), nil)
		}
		if s.cfg.VectorDim > 0 && len(p.Vector) != s.cfg.VectorDim {
			return opErr(
				op,
				OperationErrorValidation,
				fmt.Sprintf(
					"point %q dimension mismatch: expected=%d got=%d",
					pointID,
					s.cfg.VectorDim,
					len(p.Vector),
				),
				nil,
			)
		}
		payload := clonePayload(p.Payload)
		payload[payloadChunkIDKey] = pointID
		body = append(body, map[string]any{
			"id":      s.pointID(collection, pointID),
			"vector":  p.Vector,
			"payload": payload,
		})
	}

	req := map[string]any{"points": body}
	return s.doJSON(ctx, op, http.MethodPut, s.collectionPath(collection, "/points?wait=true"), req, nil)
}

func (s *vectorStore) Search(ctx context.Context, collection string, vector []float32, topK int, nowEpoch int64) ([]ScoredPoint, error) {
	const op = "search"
	if len(vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if s.cfg.VectorDim > 0 && len(vector) != s.cfg.VectorDim {
		return nil, opErr(
			op,
			OperationErrorValidation,
			fmt.Sprintf("query vector dimension mismatch: expected=%d got=%d", s.cfg.VectorDim, len(vector)),
			nil,
		)
	}
	if topK <= 0 {
		topK = 4
	}

	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
		"filter": map[string]any{
			"must": []any{
				map[string]any{
					"key":   "expires_at_epoch",
					"range": map[string]any{"gte": nowEpoch},
				},
			},
		},
	}
	var rawResults []qdrantSearchResultItem
	if err := s.doJSON(
		ctx,
		op,
		http.MethodPost,
		s.collectionPath(collection, "/points/search"),
		req,
		&rawResults,
	); err != nil {
		return nil, err
	}

	out := make([]ScoredPoint, 0, len(rawResults))
	for _, item := range rawResults {
		id := s.extractChunkID(item)
		if id == "" {
			continue
		}
		out = append(out, ScoredPoint{
			ID:      id,
			Score:   item.Score,
			Payload: item.Payload,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func (s *vectorStore) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"

	readyReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	readyResp, err := s.http.Do(readyReq)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = readyResp.Body.Close()
	if readyResp.StatusCode < 200 || readyResp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: readyResp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", readyResp.StatusCode),
		}
	}
	return nil
}

func (s *vectorStore) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*maxErrorBodyBytes))
	if readErr != nil {
		return opErr(op, OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("qdrant http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	var envelope qdrantEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant envelope failed", err)
	}
	if statusErr := parseEnvelopeStatus(envelope.Status); statusErr != "" {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    statusErr,
		}
	}

	if out == nil {
		return nil
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return opErr(op, OperationErrorDecodeFailed, "decode qdrant result failed", err)
	}
	return nil
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, OperationErrorTimeout, message, err)
	}
	return opErr(op, OperationErrorTransportFailed, message, err)
}

func parseEnvelopeStatus(raw json.RawMessage) string {
	status := strings.TrimSpace(string(raw))
	if status == "" || status == "null" {
		return ""
	}

	var statusString string
	if err := json.Unmarshal(raw, &statusString); err == nil {
		if strings.EqualFold(statusString, "ok") {
			return ""
		}
		return fmt.Sprintf("qdrant status=%q", statusString)
	}

	var statusObject struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &statusObject); err == nil {
		if strings.TrimSpace(statusObject.Error) != "" {
			return strings.TrimSpace(statusObject.Error)
		}
	}

	return fmt.Sprintf("qdrant status=%s", status)
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func clonePayload(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// pointID derives a stable UUID from the chunk id; Qdrant only accepts
// UUIDs or integers as point ids.
func (s *vectorStore) pointID(collection, chunkID string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(collection+"|"+chunkID)).String()
}

func (s *vectorStore) collectionPath(collection, suffix string) string {
	path := "/collections/" + collection
	if strings.TrimSpace(suffix) == "" {
		return path
	}
	return path + suffix
}

func (s *vectorStore) extractChunkID(item qdrantSearchResultItem) string {
	if payloadID, ok := item.Payload[payloadChunkIDKey].(string); ok {
		id := strings.TrimSpace(payloadID)
		if id != "" {
			return id
		}
	}
	return decodePointID(item.ID)
}

func decodePointID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var idString string
	if err := json.Unmarshal(raw, &idString); err == nil {
		return strings.TrimSpace(idString)
	}
	var idNumber int64
	if err := json.Unmarshal(raw, &idNumber); err == nil {
		return fmt.Sprintf("%d", idNumber)
	}
	return strings.TrimSpace(string(raw))
}
