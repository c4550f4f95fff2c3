package provider

import "os"

// Gemini Model IDs
//
// | Model Name               | API Model ID            | Use Case                      |
// |--------------------------|-------------------------|-------------------------------|
// | Gemini 3 Flash (Preview) | gemini-3-flash-preview  | Best for speed + intelligence |
// | Gemini 2.5 Pro           | gemini-2.5-pro          | Stable, high-reasoning tasks  |
// | Gemini 2.5 Flash         | gemini-2.5-flash        | Stable, balanced performance  |
// | Gemini 2.5 Flash-Lite    | gemini-2.5-flash-lite   | High-throughput, lowest cost  |
const (
	ModelGemini3FlashPreview = "gemini-3-flash-preview"
	ModelGemini25Pro         = "gemini-2.5-pro"
	ModelGemini25Flash       = "gemini-2.5-flash"
	ModelGemini25FlashLite   = "gemini-2.5-flash-lite"
)

// DefaultModelName is the Gemini model used when no override is set.
const DefaultModelName = ModelGemini3FlashPreview

// GetModelName resolves the Gemini model from the GEMINI_MODEL environment
// variable, falling back to DefaultModelName.
func GetModelName() string {
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		return env
	}
	return DefaultModelName
}
