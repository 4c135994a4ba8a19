package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/serp-brief/internal/model"
)

// DocumentTimeoutError reports that one document exceeded its processing
// budget. The document is excluded and the run continues.
type DocumentTimeoutError struct {
	DocumentID string
}

func (e *DocumentTimeoutError) Error() string {
	return fmt.Sprintf("pipeline: document %s exceeded its processing budget", e.DocumentID)
}

// EmptyCorpusError is fatal: after exclusions no usable document remained.
// It reports which documents were dropped and why.
type EmptyCorpusError struct {
	Dropped []model.Warning
}

func (e *EmptyCorpusError) Error() string {
	if len(e.Dropped) == 0 {
		return "pipeline: corpus is empty"
	}
	reasons := make([]string, len(e.Dropped))
	for i, w := range e.Dropped {
		reasons[i] = fmt.Sprintf("%s (%s: %s)", w.DocumentID, w.Stage, w.Reason)
	}
	return "pipeline: no usable documents, dropped " + strings.Join(reasons, ", ")
}
