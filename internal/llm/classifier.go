package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// Classification is the structured result of one classify call.
type Classification struct {
	Category   domain.Category `json:"category"`
	FolderName string          `json:"folder_name"`
	Reasoning  string          `json:"reasoning"`
}

// Classifier produces a one-shot PARA classification for a note.
type Classifier interface {
	Classify(ctx context.Context, noteContent, directive string, task TaskType) (*Classification, error)
}

type classifier struct {
	client   Client
	maxWords int
}

// NewClassifier builds a Classifier over a model client. maxWords caps the
// note text sent to the model; longer notes are truncated with a marker.
func NewClassifier(client Client, maxWords int) Classifier {
	if maxWords <= 0 {
		maxWords = 4000
	}
	return &classifier{client: client, maxWords: maxWords}
}

const truncationMarker = "\n\n[... note truncated ...]"

func (c *classifier) Classify(ctx context.Context, noteContent, directive string, task TaskType) (*Classification, error) {
	req := GenerateRequest{
		Task:         task,
		SystemPrompt: systemPrompt(task),
		UserPrompt:   userPrompt(truncateWords(noteContent, c.maxWords), directive),
	}

	// One retry on protocol violations; transport errors are already
	// retried inside the client.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := c.client.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		result, err := ExtractJSON[Classification](resp.Text, validateClassification)
		if err == nil {
			result.FolderName = strings.TrimSpace(result.FolderName)
			return &result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, lastErr)
}

// validateClassification enforces the strict response contract.
func validateClassification(c Classification) error {
	switch c.Category {
	case domain.CategoryProjects, domain.CategoryAreas, domain.CategoryResources, domain.CategoryArchive:
	default:
		return fmt.Errorf("category must be one of Projects/Areas/Resources/Archive, got %q", c.Category)
	}
	words := len(strings.Fields(c.FolderName))
	if words < 2 || words > 4 {
		return fmt.Errorf("folder_name must be 2-4 words, got %q", c.FolderName)
	}
	if strings.ContainsAny(c.FolderName, `/\:*?"<>|`) {
		return fmt.Errorf("folder_name contains filesystem-hostile characters: %q", c.FolderName)
	}
	if strings.TrimSpace(c.Reasoning) == "" {
		return errors.New("reasoning must be non-empty")
	}
	return nil
}

func systemPrompt(task TaskType) string {
	var b strings.Builder
	b.WriteString(`You classify personal notes into the PARA method buckets.

Categories:
- Projects: active work with a goal and a deadline
- Areas: ongoing responsibilities without an end date
- Resources: reference material of lasting interest
- Archive: inactive, completed, or abandoned items

`)
	switch task {
	case TaskClassifyArchive:
		b.WriteString("The note currently lives in the Archive. Reclassify it only when it clearly belongs elsewhere; answer Archive to keep it where it is.\n\n")
	default:
		b.WriteString("The note comes from the inbox. When genuinely uncertain, answer Archive.\n\n")
	}
	b.WriteString(`Respond with a single JSON object and nothing else, with exactly these keys:
{"category": "Projects|Areas|Resources|Archive", "folder_name": "2 to 4 plain words", "reasoning": "one short sentence"}

The folder_name must not contain any of / \ : * ? " < > | and must be 2-4 words.`)
	return b.String()
}

func userPrompt(content, directive string) string {
	var b strings.Builder
	if directive != "" {
		b.WriteString("User directive: ")
		b.WriteString(directive)
		b.WriteString("\n\n")
	}
	b.WriteString("Note content:\n")
	b.WriteString(content)
	return b.String()
}

// truncateWords caps text at n whitespace-separated words.
func truncateWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) <= n {
		return text
	}
	return strings.Join(fields[:n], " ") + truncationMarker
}
