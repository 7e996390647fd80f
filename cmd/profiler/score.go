package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/profiler/internal/documents"
	"github.com/jonathan/profiler/internal/observability"
	"github.com/jonathan/profiler/internal/profile"
	"github.com/jonathan/profiler/internal/schemas"
	"github.com/jonathan/profiler/internal/types"
	"github.com/spf13/cobra"
)

var (
	scoreProfileFile string
	scoreProfileJSON bool

	scoreDocFile string
	scoreDocURL  string
	scoreDocType string
	scoreDocJSON bool

	nextSectionFile string

	validateFile string
	validateType string
)

var scoreProfileCmd = &cobra.Command{
	Use:   "score-profile",
	Short: "Score the quality of profile data",
	Long:  "Reads a JSON object of category -> data and prints the overall quality score and the score of every configured category.",
	RunE:  runScoreProfile,
}

var scoreDocumentCmd = &cobra.Command{
	Use:   "score-document",
	Short: "Extract and score a document",
	Long:  "Ingests a document from a file or URL, extracts structured information, scores extraction confidence and lists issues. Uses the LLM extractor when GEMINI_API_KEY is set.",
	RunE:  runScoreDocument,
}

var nextSectionCmd = &cobra.Command{
	Use:   "next-section",
	Short: "Show profile completion and the next section to fill",
	Long:  "Reads a profile JSON file (config and sections) and prints completed and remaining sections and the next section whose prerequisites are met.",
	RunE:  runNextSection,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an extraction payload against its JSON Schema",
	RunE:  runValidate,
}

func init() {
	scoreProfileCmd.Flags().StringVarP(&scoreProfileFile, "file", "f", "", "Profile data JSON file (required)")
	scoreProfileCmd.Flags().BoolVar(&scoreProfileJSON, "json", false, "Print JSON instead of a report")
	mustMarkRequired(scoreProfileCmd, "file")

	scoreDocumentCmd.Flags().StringVarP(&scoreDocFile, "file", "f", "", "Document text file")
	scoreDocumentCmd.Flags().StringVar(&scoreDocURL, "url", "", "Document URL")
	scoreDocumentCmd.Flags().StringVarP(&scoreDocType, "type", "t", "", "Document type: transcript, essay or resume (required)")
	scoreDocumentCmd.Flags().BoolVar(&scoreDocJSON, "json", false, "Print JSON instead of a report")
	mustMarkRequired(scoreDocumentCmd, "type")

	nextSectionCmd.Flags().StringVarP(&nextSectionFile, "file", "f", "", "Profile JSON file (required)")
	mustMarkRequired(nextSectionCmd, "file")

	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Extraction JSON file (required)")
	validateCmd.Flags().StringVarP(&validateType, "type", "t", "", "Document type (required)")
	mustMarkRequired(validateCmd, "file")
	mustMarkRequired(validateCmd, "type")

	rootCmd.AddCommand(scoreProfileCmd, scoreDocumentCmd, nextSectionCmd, validateCmd)
}

func mustMarkRequired(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagRequired(name); err != nil {
		panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
	}
}

func runScoreProfile(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var data map[string]any
	if err := readJSONFile(scoreProfileFile, &data); err != nil {
		return err
	}

	quality := a.scorer.QualityScore(data)
	categories := a.scorer.CategoryScores(data)

	if scoreProfileJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"quality":    quality,
			"categories": categories,
		})
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintQuality(quality, categories)
	return nil
}

func runScoreDocument(cmd *cobra.Command, _ []string) error {
	if (scoreDocFile == "") == (scoreDocURL == "") {
		return fmt.Errorf("exactly one of --file or --url is required")
	}

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	pipeline, err := a.extractionPipeline(ctx)
	if err != nil {
		return err
	}
	ingester := a.ingester()

	var text string
	if scoreDocFile != "" {
		text, _, err = ingester.FromFile(scoreDocFile)
	} else {
		text, _, err = ingester.FromURL(ctx, scoreDocURL)
	}
	if err != nil {
		return err
	}

	svc := documents.NewService(nil, ingester, pipeline, a.logger)
	analysis, err := svc.AnalyzeDocument(ctx, &types.Document{
		ID:           uuid.New(),
		DocumentType: types.ParseDocumentType(strings.ToLower(scoreDocType)),
		Content:      text,
	})
	if err != nil {
		return err
	}

	if scoreDocJSON {
		return writeJSON(cmd.OutOrStdout(), analysis)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintDocumentAnalysis(analysis)
	return nil
}

func runNextSection(cmd *cobra.Command, _ []string) error {
	var p types.Profile
	if err := readJSONFile(nextSectionFile, &p); err != nil {
		return err
	}
	if err := p.Config.Validate(); err != nil {
		return err
	}

	state := profile.NewStateCalculator().CalculateState(&p)
	observability.NewPrinter(cmd.OutOrStdout()).PrintProfileState(&state)
	return nil
}

func runValidate(cmd *cobra.Command, _ []string) error {
	content, err := os.ReadFile(validateFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", validateFile, err)
	}

	out := cmd.OutOrStdout()
	err = schemas.ValidateExtraction(strings.ToLower(validateType), string(content))
	var verr *schemas.ValidationError
	if errors.As(err, &verr) {
		_, _ = fmt.Fprintln(out, "Validation failed:")
		for _, msg := range verr.Messages() {
			_, _ = fmt.Fprintf(out, "  - %s\n", msg)
		}
		return fmt.Errorf("%d validation error(s)", len(verr.Errors))
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "Validation passed")
	return nil
}

// readJSONFile decodes a JSON file into v
func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
