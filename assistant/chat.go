package assistant

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mlovric/trosak/config"
	"github.com/mlovric/trosak/models"
	"google.golang.org/genai"
)

const defaultModelName = "gemini-2.5-flash"

// The model is allowed this many tool rounds per user message before we
// cut it off.
const maxToolRounds = 6

const historyWindow = 20

const systemPrompt = `You are a personal finance assistant inside a budgeting app.
You answer questions about the user's own transactions, categories, spending
and savings. Use the provided tools to look up real data before answering;
never invent numbers. Amounts are in the user's account currency. Keep
answers short and concrete. When asked to record or change a transaction,
confirm what you did including amount, category and date.`

func modelName() string {
	if name := os.Getenv("GEMINI_MODEL"); name != "" {
		return name
	}
	return defaultModelName
}

// Chat runs one assistant turn: persist the user message, let the model
// call tools until it produces text, persist and return the reply.
func Chat(ctx context.Context, userID string, message string) (string, error) {
	if message == "" {
		return "", errors.New("message is required")
	}
	logger := config.GetLogger()

	if err := models.SaveChatMessage(ctx, userID, "user", message); err != nil {
		return "", err
	}

	history, err := models.GetChatHistory(ctx, userID, historyWindow)
	if err != nil {
		return "", err
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("could not create genai client: %w", err)
	}

	registry := toolRegistry()
	declarations := make([]*genai.FunctionDeclaration, 0, len(registry))
	for _, t := range registry {
		declarations = append(declarations, t.decl)
	}
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		Tools:             []*genai.Tool{{FunctionDeclarations: declarations}},
	}

	var reply string
	for round := 0; round < maxToolRounds; round++ {
		resp, err := client.Models.GenerateContent(ctx, modelName(), contents, genConfig)
		if err != nil {
			return "", fmt.Errorf("assistant request failed: %w", err)
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			reply = resp.Text()
			break
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}

		responseParts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			t, ok := registry[call.Name]
			var result map[string]any
			if !ok {
				result = map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
			} else if out, err := t.run(ctx, userID, call.Args); err != nil {
				// Tool failures go back to the model so it can explain or retry.
				config.LogError(logger, "chat.go", "Chat", call.Name, call.Args, err)
				result = map[string]any{"error": err.Error()}
			} else {
				result = out
			}
			responseParts = append(responseParts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     call.Name,
					Response: result,
				},
			})
		}
		contents = append(contents, &genai.Content{Role: "user", Parts: responseParts})
	}

	if reply == "" {
		reply = "I could not finish answering that; please try rephrasing."
	}

	if err := models.SaveChatMessage(ctx, userID, "assistant", reply); err != nil {
		return "", err
	}
	return reply, nil
}
