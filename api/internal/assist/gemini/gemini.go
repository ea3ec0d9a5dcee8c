// Package gemini answers the assist operations with a Gemini vision model.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"visual-assist/api/internal/util"
)

const systemPrompt = `You are the vision component of an accessibility assistant for blind and low-vision students.
You receive one photo and one instruction. Answer ONLY with JSON matching the shape given in the instruction.
Do not add commentary, markdown or keys that were not asked for. Use English.`

const (
	textPrompt = `Transcribe all legible text in the photo exactly as written, preserving line breaks.
Reply as {"text": string}. Use an empty string when there is no text.`
	labelsPrompt = `List short labels (one to three words each) naming what this diagram, chart or figure shows,
most relevant first, at most %d labels. Reply as {"labels": [string]}.`
	objectsPrompt = `List the physical objects and people in the photo that matter to someone walking forward,
such as people, doors, chairs, tables, stairs or bags. Use singular nouns, one entry per visible instance.
Reply as {"objects": [string]}. Use an empty array when the way is clear.`
)

var ErrEmptyReply = errors.New("gemini: empty reply")

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Engine struct {
	Model string

	client *genai.Client
	gen    generator
}

func New(ctx context.Context, apiKey, model string) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	m := cl.GenerativeModel(strings.TrimSpace(model))
	m.SetTemperature(0)
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	return &Engine{Model: model, client: cl, gen: m}, nil
}

func (e *Engine) Name() string { return "gemini" }

func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

func (e *Engine) DetectText(ctx context.Context, image []byte) (string, error) {
	var out struct {
		Text string `json:"text"`
	}
	if err := e.ask(ctx, image, textPrompt, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

func (e *Engine) DetectLabels(ctx context.Context, image []byte, max int) ([]string, error) {
	var out struct {
		Labels []string `json:"labels"`
	}
	if err := e.ask(ctx, image, fmt.Sprintf(labelsPrompt, max), &out); err != nil {
		return nil, err
	}
	if max > 0 && len(out.Labels) > max {
		out.Labels = out.Labels[:max]
	}
	return out.Labels, nil
}

func (e *Engine) LocalizeObjects(ctx context.Context, image []byte) ([]string, error) {
	var out struct {
		Objects []string `json:"objects"`
	}
	if err := e.ask(ctx, image, objectsPrompt, &out); err != nil {
		return nil, err
	}
	return out.Objects, nil
}

func (e *Engine) ask(ctx context.Context, image []byte, instruction string, out any) error {
	resp, err := e.gen.GenerateContent(ctx,
		genai.Text(instruction),
		genai.Blob{MIMEType: util.SniffImageMIME(image, ""), Data: image},
	)
	if err != nil {
		return err
	}
	raw, err := replyText(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(util.StripCodeFences(raw)), out); err != nil {
		return fmt.Errorf("gemini: bad json reply: %w", err)
	}
	return nil
}

func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyReply
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyReply
	}
	return sb.String(), nil
}
