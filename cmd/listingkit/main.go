package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/propscribe/listing-copy-kit/internal/facts"
	"github.com/propscribe/listing-copy-kit/internal/logging"
	"github.com/propscribe/listing-copy-kit/internal/pipeline"
	"github.com/propscribe/listing-copy-kit/internal/provider"
)

// CLI flags
var (
	factsFlag    string
	controlsFlag string
	insightsFlag string
	modelFlag    string
	outputFlag   string
	compactFlag  bool
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "listingkit",
	Short: "AI-generated marketing copy kits for real-estate listings",
	Long: `Listingkit runs the full generation pipeline for one listing: draft,
self-critique, schema validation, policy enforcement, post-processing,
photo-integration scoring, and channel filtering. The finished kit is
written as JSON.

Inputs are JSON files. Facts are required; agent controls and photo
insights are optional.

Examples:
  listingkit --facts listing.json
  listingkit -f listing.json --controls controls.json --insights photos.json
  listingkit -f listing.json -o kit.json
  listingkit -f listing.json --model gemini-3-pro-preview`,
	RunE: runGenerate,
}

func init() {
	rootCmd.Flags().StringVarP(&factsFlag, "facts", "f", "", "Path to the listing facts JSON file (required)")
	rootCmd.Flags().StringVarP(&controlsFlag, "controls", "c", "", "Path to the agent controls JSON file")
	rootCmd.Flags().StringVarP(&insightsFlag, "insights", "i", "", "Path to the photo insights JSON file")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", provider.DefaultModelName, "Gemini model to use (e.g., gemini-3-flash-preview, gemini-3-pro-preview)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write the kit to this file instead of stdout")
	rootCmd.Flags().BoolVar(&compactFlag, "compact", false, "Emit compact JSON instead of indented")
	rootCmd.MarkFlagRequired("facts")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runGenerate is the main execution logic called by Cobra.
func runGenerate(cmd *cobra.Command, args []string) error {
	logging.Init()

	req, err := loadRequest()
	if err != nil {
		return err
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("No API key configured. Set GEMINI_API_KEY")
	}

	ctx := context.Background()
	gemini, err := provider.NewGemini(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	orch := pipeline.New(gemini, pipeline.Config{Model: modelFlag})
	result, err := orch.GenerateKit(ctx, req)
	if err != nil {
		var verr *facts.ValidationError
		if errors.As(err, &verr) {
			log.Fatal().Str("field", verr.Field).Msg(verr.Message)
		}
		log.Fatal().Err(err).Msg("Kit generation failed")
	}

	log.Info().
		Int("totalTokens", result.Tokens.Total).
		Int("flags", len(result.Flags)).
		Msg("Kit generation complete")
	if result.Integration != nil {
		log.Info().
			Int("score", result.Integration.Score).
			Strs("issues", result.Integration.Issues).
			Msg("Photo integration")
	}

	return writeResult(result)
}

// loadRequest reads and parses the input files into a pipeline request.
func loadRequest() (pipeline.Request, error) {
	var req pipeline.Request

	raw, err := os.ReadFile(factsFlag)
	if err != nil {
		return req, fmt.Errorf("read facts file: %w", err)
	}
	f, err := facts.ParseFacts(raw)
	if err != nil {
		return req, fmt.Errorf("parse facts: %w", err)
	}
	req.Facts = f

	if controlsFlag != "" {
		raw, err := os.ReadFile(controlsFlag)
		if err != nil {
			return req, fmt.Errorf("read controls file: %w", err)
		}
		c, err := facts.ParseControls(raw)
		if err != nil {
			return req, fmt.Errorf("parse controls: %w", err)
		}
		req.Controls = c
	}

	if insightsFlag != "" {
		raw, err := os.ReadFile(insightsFlag)
		if err != nil {
			return req, fmt.Errorf("read insights file: %w", err)
		}
		pi, err := facts.ParsePhotoInsights(raw)
		if err != nil {
			return req, fmt.Errorf("parse photo insights: %w", err)
		}
		req.PhotoInsights = pi
	}

	return req, nil
}

// writeResult serializes the kit to the output flag or stdout.
func writeResult(result *pipeline.Result) error {
	var data []byte
	var err error
	if compactFlag {
		data, err = json.Marshal(result)
	} else {
		data, err = json.MarshalIndent(result, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal kit: %w", err)
	}
	data = append(data, '\n')

	if outputFlag == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputFlag, data, 0o644); err != nil {
		return fmt.Errorf("write kit to %s: %w", outputFlag, err)
	}
	log.Info().Str("path", outputFlag).Msg("Kit written")
	return nil
}
