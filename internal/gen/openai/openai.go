// Package openai implements gen.Generator on top of an OpenAI-compatible
// chat completion endpoint.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"fableforge/internal/gen"
)

const systemPrompt = "You are a game content generator. " +
	"Respond with a single JSON object that is the complete payload for the requested entity. " +
	"Keep every referenced entity id from the prior links unchanged."

type Generator struct {
	client      *openai.Client
	model       string
	temperature float64
}

type Params struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

func New(params Params) *Generator {
	opts := []option.RequestOption{option.WithAPIKey(params.APIKey)}
	if params.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(params.BaseURL))
	}
	client := openai.NewClient(opts...)

	temperature := params.Temperature
	if temperature == 0 {
		temperature = 0.8
	}

	model := params.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &Generator{
		client:      &client,
		model:       model,
		temperature: temperature,
	}
}

var _ gen.Generator = (*Generator)(nil)

func (g *Generator) Generate(ctx context.Context, entityType, id string, priorLinks gen.Links) (map[string]any, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "entity_payload",
		Description: openai.String("Complete payload for one generated entity"),
		Schema:      map[string]any{"type": "object", "additionalProperties": true},
		Strict:      openai.Bool(false),
	}

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(entityType, id, priorLinks)),
		},
		Temperature: openai.Float(g.temperature),
	}

	response, err := g.client.Chat.Completions.New(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("generating %s/%s: %w", entityType, id, err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("generating %s/%s: no choices in response", entityType, id)
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return nil, fmt.Errorf("generating %s/%s: empty response (finish_reason: %s)",
			entityType, id, response.Choices[0].FinishReason)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(message), &payload); err != nil {
		return nil, fmt.Errorf("generating %s/%s: decoding payload: %w", entityType, id, err)
	}
	if _, ok := payload["id"]; !ok {
		payload["id"] = id
	}
	return payload, nil
}

func buildPrompt(entityType, id string, priorLinks gen.Links) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate the payload for a %s with id %q.\n", entityType, id)

	if len(priorLinks) > 0 {
		b.WriteString("The entity must keep these existing references:\n")
		relatedTypes := make([]string, 0, len(priorLinks))
		for relatedType := range priorLinks {
			relatedTypes = append(relatedTypes, relatedType)
		}
		sort.Strings(relatedTypes)
		for _, relatedType := range relatedTypes {
			fmt.Fprintf(&b, "- %s: %s\n", relatedType, strings.Join(priorLinks[relatedType], ", "))
		}
	}
	return b.String()
}
