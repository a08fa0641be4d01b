// Package export persists aggregated query results to local disk as
// gzip-compressed JSON artifacts.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"infinity-mcp/internal/models"
)

// Envelope is the on-disk artifact shape. It pairs the aggregated result
// with the query that produced it so a saved file is self-describing.
type Envelope struct {
	Query       string              `json:"query"`
	Timeframe   string              `json:"timeframe"`
	Result      *models.QueryResult `json:"result"`
	GeneratedBy string              `json:"generated_by"`
}

// Write stores the envelope under dir and returns the created filename.
// Filenames carry a uuid so repeated exports never collide.
func Write(dir string, env Envelope) (string, error) {
	name := fmt.Sprintf("infinity_events_%s.json.gz", uuid.NewString())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		zw.Close()
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to flush export: %w", err)
	}

	return name, nil
}
