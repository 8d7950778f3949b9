// Copyright 2026 OpenClerk Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/openclerk/openclerk/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Smaller models occasionally drop the opening quote on a recap key,
// producing output like `{ summary": "..."}`. The keys are fixed by the
// prompt, so the parse path re-quotes exactly those five names and
// nothing else.
var brokenRecapKey = regexp.MustCompile(`([{,]\s*)(summary|article|topics|decisions|public_comments)":`)

func requoteRecapKeys(s string) string {
	return brokenRecapKey.ReplaceAllString(s, `$1"$2":`)
}

// parseRecap decodes a model response into a recap, retrying once with
// re-quoted keys when the raw text does not decode.
func parseRecap(responseText string) (*ai.Recap, error) {
	recap := &ai.Recap{}
	err := json.Unmarshal([]byte(responseText), recap)
	if err == nil {
		return recap, nil
	}

	if repaired := requoteRecapKeys(responseText); repaired != responseText {
		*recap = ai.Recap{}
		if json.Unmarshal([]byte(repaired), recap) == nil {
			return recap, nil
		}
	}
	return nil, err
}

// RecapGenerator implements ai.RecapGenerator using OpenAI-compatible chat APIs.
type RecapGenerator struct {
	client        llms.Model
	maxInputChars int
	logger        *slog.Logger
}

// newRecapGenerator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRecapGenerator(config *ai.Config) (*RecapGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.RecapHost),
		openai.WithToken(config.Token),
		openai.WithModel(config.RecapModel),
	)
	if err != nil {
		return nil, err
	}

	return &RecapGenerator{
		client:        client,
		maxInputChars: config.MaxInputChars,
		logger:        slog.Default().With("component", "openai-recapper"),
	}, nil
}

// NewRecapGenerator creates a new recap generator using the provided configuration.
//
// Returns ai.RecapGenerator interface to enforce abstraction.
func NewRecapGenerator(config *ai.Config) (ai.RecapGenerator, error) {
	return newRecapGenerator(config)
}

// GenerateRecap produces a structured recap from a meeting transcript.
// Transport errors are returned as-is; responses that cannot be parsed as
// the expected JSON structure wrap ai.ErrMalformedResponse.
func (g *RecapGenerator) GenerateRecap(ctx context.Context, title, transcript string) (*ai.Recap, error) {
	transcript = truncateAtSentence(transcript, g.maxInputChars)

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildRecapSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildRecapUserPrompt(title, transcript)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var recap ai.Recap
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := g.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			g.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			lastErr = fmt.Errorf("%w: no choices returned", ai.ErrMalformedResponse)
			g.logger.Warn("no choices returned from model", "attempt", attempt+1)
			continue
		}

		responseText := stripCodeFences(response.Choices[0].Content)

		parsed, err := parseRecap(responseText)
		if err != nil {
			lastErr = fmt.Errorf("%w: %w", ai.ErrMalformedResponse, err)
			g.logger.Warn("error parsing recap response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}
		recap = *parsed

		if recap.IsZero() {
			lastErr = fmt.Errorf("%w: empty recap", ai.ErrMalformedResponse)
			g.logger.Warn("model returned empty recap", "attempt", attempt+1)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		g.logger.Error("failed to parse recap response after retries", "err", lastErr)
		return nil, lastErr
	}

	g.logger.Debug("generated recap",
		"topics", len(recap.Topics),
		"decisions", len(recap.Decisions),
		"public_comments", len(recap.PublicComments))

	return &recap, nil
}
