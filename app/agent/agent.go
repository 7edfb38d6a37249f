package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"docchat/index"
	"docchat/types"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// maxPromptTokens caps how much retrieved context and history goes into
	// a single prompt.
	maxPromptTokens = 3000

	// maxHistoryMessages bounds how far back conversation history is
	// replayed into the prompt.
	maxHistoryMessages = 10
)

type GenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

// Agent produces assistant answers from retrieved document passages and the
// recent conversation history.
type Agent struct {
	llmURL string
	model  string
	client *http.Client
	logger *slog.Logger
}

func New(llmURL, model string) *Agent {
	return &Agent{
		llmURL: llmURL,
		model:  model,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: slog.Default(),
	}
}

const systemPrompt = `You are an assistant that answers questions about the user's uploaded documents.
Answer clearly and to the point, using only the provided context.
If the context is empty or does not contain the answer, say 'I could not find information about that in your documents.'
Do not add introductions like 'Of course!' or 'Here is the answer:'.`

// Answer builds a grounded prompt from the search results and history, then
// asks the LLM. When no LLM is configured it degrades to an extractive
// answer built from the top passages so the conversation keeps working.
func (a *Agent) Answer(question string, results []index.Result, history []types.Message) (string, error) {
	start := time.Now()
	defer func() {
		a.logger.Info("[AGENT] answer generated", "took", time.Since(start))
	}()

	context := a.buildContext(results)
	prompt := a.buildPrompt(question, context, history)

	if a.llmURL == "" {
		return ExtractiveAnswer(results), nil
	}

	reqBody, err := json.Marshal(GenerateRequest{
		Model:  a.model,
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return "", err
	}

	if count, err := CountTokens(string(reqBody)); err == nil {
		a.logger.Info("[AGENT] prompt ready", "tokens", count, "bytes", len(reqBody))
	}

	resp, err := a.client.Post(a.llmURL, "application/json", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm returned status %d", resp.StatusCode)
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Response != "" {
		return genResp.Response, nil
	}

	// Streaming responses arrive as concatenated JSON objects; stitch the
	// chunks back together.
	var output strings.Builder
	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var chunk GenerateResponse
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		output.WriteString(chunk.Response)
	}
	if output.Len() == 0 {
		return "", fmt.Errorf("llm returned no usable response")
	}
	return output.String(), nil
}

func (a *Agent) buildContext(results []index.Result) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	budget := maxPromptTokens
	for _, res := range results {
		passage := fmt.Sprintf("[%s]\n%s\n\n", res.Metadata.Title, res.Content)
		count, err := CountTokens(passage)
		if err != nil {
			count = len(passage) / 4
		}
		if count > budget {
			break
		}
		budget -= count
		sb.WriteString(passage)
	}
	return strings.TrimSpace(sb.String())
}

func (a *Agent) buildPrompt(question, context string, history []types.Message) string {
	var sb strings.Builder

	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, `Answer the question based on the given context. If there is no information in the provided context or the context is empty, say so. Nothing else.
Context:
%s
Question:
%s
Answer:`, context, question)

	return sb.String()
}

// ExtractiveAnswer is the no-LLM fallback: quote the best passages directly.
func ExtractiveAnswer(results []index.Result) string {
	if len(results) == 0 {
		return "I could not find information about that in your documents."
	}

	var sb strings.Builder
	sb.WriteString("Here is what I found in your documents:\n\n")
	n := len(results)
	if n > 3 {
		n = 3
	}
	for _, res := range results[:n] {
		fmt.Fprintf(&sb, "From %q:\n%s\n\n", res.Metadata.Title, strings.TrimSpace(res.Content))
	}
	return strings.TrimSpace(sb.String())
}

func CountTokens(data string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(data, nil, nil)), nil
}
