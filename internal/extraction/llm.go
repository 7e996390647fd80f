package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/jonathan/profiler/internal/llm"
	"github.com/jonathan/profiler/internal/prompts"
	"github.com/jonathan/profiler/internal/schemas"
	"github.com/jonathan/profiler/internal/types"
)

// maxPromptChars bounds the document text sent to the model
const maxPromptChars = 30000

// LLMExtractor asks a language model for a structured payload and checks it
// against the embedded schema for the document type.
type LLMExtractor struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMExtractor creates an extractor backed by client
func NewLLMExtractor(client llm.Client) *LLMExtractor {
	return &LLMExtractor{client: client, tier: llm.TierLite}
}

// Extract implements Extractor. Model or schema failures are returned as
// errors; callers decide whether to fall back to regex extraction.
func (e *LLMExtractor) Extract(ctx context.Context, docType types.DocumentType, text string) (map[string]any, error) {
	tier := e.tier
	if utf8.RuneCountInString(text) > 8000 {
		tier = llm.TierStandard
	}

	prompt, err := BuildPrompt(docType, "", text)
	if err != nil {
		return nil, err
	}

	answer, err := e.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return nil, err
	}
	answer = llm.CleanJSONBlock(answer)

	if err := schemas.ValidateExtraction(string(docType), answer); err != nil {
		return nil, fmt.Errorf("model output failed schema: %w", err)
	}

	out, err := llm.DecodeObject(answer)
	if err != nil {
		return nil, err
	}
	out[KeySourceType] = SourceLLM
	return out, nil
}

// BuildPrompt renders the extraction prompt for a document type
func BuildPrompt(docType types.DocumentType, title, text string) (string, error) {
	key := string(docType)
	if key == "" {
		key = string(types.DocumentGeneric)
	}
	description, err := prompts.Get("extraction.json", key)
	if err != nil {
		description, err = prompts.Get("extraction.json", string(types.DocumentGeneric))
		if err != nil {
			return "", err
		}
	}
	if title == "" {
		title = "untitled " + key
	}

	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	schema := llm.ExtractionSchema{
		Name:        key,
		Description: prompts.Format(description, map[string]string{"Title": title}),
		Fields:      schemaFields(docType),
	}
	return llm.BuildExtractionPrompt(schema, text), nil
}

func schemaFields(docType types.DocumentType) []llm.SchemaField {
	switch docType {
	case types.DocumentTranscript:
		return []llm.SchemaField{
			{Name: "student_name", Required: true},
			{Name: "institution", Required: true},
			{Name: "gpa", Type: "number", Required: true, Description: "cumulative GPA"},
			{Name: "courses", Type: "[]object", Required: true, Description: `{"name", "grade", "credits"}`},
			{Name: "grades", Type: "[]string", Description: "letter grades in course order"},
			{Name: "honors", Type: "[]string"},
			{Name: "academic_standing"},
			{Name: "test_scores", Type: "map[string]number"},
		}
	case types.DocumentEssay:
		return []llm.SchemaField{
			{Name: "title"},
			{Name: "topic", Required: true, Description: "the prompt the essay answers"},
			{Name: "content", Required: true, Description: "full essay text"},
			{Name: "word_count", Type: "number", Required: true},
			{Name: "themes", Type: "[]string"},
			{Name: "key_points", Type: "[]string"},
			{Name: "tone"},
		}
	case types.DocumentResume:
		return []llm.SchemaField{
			{Name: "name", Required: true},
			{Name: "email"},
			{Name: "summary"},
			{Name: "education", Type: "[]string", Required: true},
			{Name: "experience", Type: "[]object", Required: true, Description: `{"title", "organization", "description"}`},
			{Name: "skills", Type: "[]string", Required: true},
			{Name: "achievements", Type: "[]string"},
			{Name: "activities", Type: "[]string"},
		}
	default:
		return nil
	}
}

// Encode renders a raw payload as JSON for logging and MCP responses
func Encode(raw map[string]any) string {
	b, err := json.Marshal(raw)
	if err != nil {
		return "{}"
	}
	return string(b)
}
