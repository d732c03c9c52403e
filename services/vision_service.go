package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"calmateAPI/internal/apperrors"
	"calmateAPI/internal/types/foodlog"
)

const visionPrompt = `Analyze this food and provide nutrition information in exactly this JSON format:
{
    "food_name": "name of the food",
    "portion_size": number_in_grams,
    "calories": number,
    "macronutrients": {
        "protein": number_in_grams,
        "carbs": number_in_grams,
        "fats": number_in_grams
    }
}
Just return the JSON, no additional text.`

// NutritionAnalysis is the parsed shape of the vision model's answer.
type NutritionAnalysis struct {
	FoodName       string                 `json:"food_name"`
	PortionSize    float64                `json:"portion_size"`
	Calories       float64                `json:"calories"`
	Macronutrients foodlog.Macronutrients `json:"macronutrients"`
}

// VisionService calls the OpenAI chat completions endpoint with a meal photo
// and parses the nutrition JSON out of the reply. One retry, fixed timeout;
// anything past that surfaces as an upstream failure.
type VisionService struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewVisionService() *VisionService {
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &VisionService{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: baseURL,
		model:   "gpt-4o-mini",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *VisionService) AnalyzeFood(ctx context.Context, image []byte) (*NutritionAnalysis, error) {
	encoded := base64.StdEncoding.EncodeToString(image)

	payload := map[string]any{
		"model":      s.model,
		"max_tokens": 300,
		"messages": []map[string]any{{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": visionPrompt},
				{"type": "image_url", "image_url": map[string]string{
					"url": "data:image/jpeg;base64," + encoded,
				}},
			},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode vision request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			log.Printf("Vision: retrying after error: %v", lastErr)
			time.Sleep(time.Second)
		}

		analysis, err := s.doRequest(ctx, body)
		if err == nil {
			return analysis, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("vision analysis failed: %v: %w", lastErr, apperrors.ErrUpstream)
}

func (s *VisionService) doRequest(ctx context.Context, body []byte) (*NutritionAnalysis, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vision API returned %d: %s", resp.StatusCode, snippet)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("vision response had no choices")
	}

	return parseNutrition(completion.Choices[0].Message.Content)
}

// parseNutrition tolerates the model wrapping its JSON in markdown fences.
func parseNutrition(content string) (*NutritionAnalysis, error) {
	clean := strings.ReplaceAll(content, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var analysis NutritionAnalysis
	if err := json.Unmarshal([]byte(clean), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse nutrition data: %w", err)
	}
	if analysis.FoodName == "" {
		return nil, fmt.Errorf("nutrition data missing food_name")
	}
	return &analysis, nil
}
