package pairing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultLLMTimeout = 30 * time.Second

type LLMPairerConfig struct {
	APIKey string
	APIURL string // OpenAI-совместимый chat/completions эндпоинт
	Model  string
}

// LLMPairer просит языковую модель составить максимально честные пары
// первого раунда, избегая жёстких контр-пиков. Ответ модели — JSON вида
// {"pairs": [{"player1": id, "player2": id}], "bye": id|null}.
type LLMPairer struct {
	cfg    LLMPairerConfig
	client *http.Client
}

func NewLLMPairer(cfg LLMPairerConfig) *LLMPairer {
	return &LLMPairer{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultLLMTimeout},
	}
}

func (p *LLMPairer) GetName() string {
	return "llm"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *LLMPairer) Pair(ctx context.Context, players []Player) (*Result, error) {
	playersJSON, err := json.MarshalIndent(players, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal players: %w", err)
	}

	prompt := fmt.Sprintf(`You are a tournament bracket generator for a League of Legends 1v1 event.

Goal: Create the fairest possible first-round pairings based on the champions players have chosen.
Avoid known hard-counter matchups in early rounds if possible.
If perfect fairness is impossible, choose the pairing set with the lowest overall counter impact.

Rules:
- Each player has registered with exactly one champion.
- Early rounds (Round 1 only) must avoid hard counters (e.g. assassin vs immobile mage, ranged poke vs melee).
- Return JSON with "pairs": [{"player1": "<id>", "player2": "<id>"}, ...] and optional "bye": "<id or null>".

Here is the player list:
%s`, playersJSON)

	reqBody := chatRequest{
		Model: p.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful assistant that generates JSON."},
			{Role: "user", Content: prompt},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal llm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build llm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm request failed with status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode llm response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("llm response contains no choices")
	}

	var result Result
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse bracket from llm content: %w", err)
	}
	return &result, nil
}
