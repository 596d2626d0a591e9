package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/intelboard/api/internal/domain"
)

// Asker is the chat collaborator boundary: one question plus dataset
// context in, one answer out. Prompt construction, model choice and
// retries all live behind this interface.
type Asker interface {
	Ask(ctx context.Context, text string, context string) (string, error)
}

// ErrDisabled is returned by the disabled asker.
var ErrDisabled = errors.New("assistant is not configured")

type disabled struct{}

func (disabled) Ask(context.Context, string, string) (string, error) {
	return "", ErrDisabled
}

// Disabled returns an Asker that rejects every question. Used when no
// chat backend is configured.
func Disabled() Asker {
	return disabled{}
}

// BuildRowContext renders a compact textual summary of the combined
// dataset for the chat collaborator: row count plus up to limit sample
// rows with stable column order.
func BuildRowContext(dataset string, rows []domain.Row, limit int) string {
	if limit <= 0 {
		limit = 20
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dataset %s: %d row(s).\n", dataset, len(rows))

	for i, row := range rows {
		if i >= limit {
			fmt.Fprintf(&b, "... and %d more row(s)\n", len(rows)-limit)
			break
		}

		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, row[k]))
		}
		fmt.Fprintf(&b, "- %s\n", strings.Join(parts, ", "))
	}

	return b.String()
}

// AskAsync dispatches one question fire-and-forget. The reconciler never
// depends on the answer; failures are logged and dropped.
func AskAsync(asker Asker, text string, rowContext string) {
	if asker == nil {
		return
	}
	go func() {
		if _, err := asker.Ask(context.Background(), text, rowContext); err != nil && !errors.Is(err, ErrDisabled) {
			log.Printf("[CHAT] ask failed: %v", err)
		}
	}()
}
