package quiz

import (
	"context"
	"fmt"

	"github.com/miskar/quizdeck/internal/domain"
)

// ResultRecorder persists finished-session scores through the score-writing
// repository operation. One attempt per session, no retries: a dropped
// record is an accepted loss, logged by the caller.
type ResultRecorder struct {
	scores domain.ScoreWriter
}

// NewResultRecorder creates a new result recorder
func NewResultRecorder(scores domain.ScoreWriter) *ResultRecorder {
	return &ResultRecorder{scores: scores}
}

// Save writes one score record.
func (r *ResultRecorder) Save(ctx context.Context, rec domain.ScoreRecord) error {
	if err := r.scores.SaveScore(ctx, rec); err != nil {
		return fmt.Errorf("failed to persist score: %w", err)
	}
	return nil
}
