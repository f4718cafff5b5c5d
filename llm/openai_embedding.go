package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
)

// EmbeddingDimensions is the vector size of text-embedding-3-small.
const EmbeddingDimensions = 1536

type OpenAIEmbeddingClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	model      string
}

func NewOpenAIEmbeddingClient(model string) *OpenAIEmbeddingClient {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Fatal("OPENAI_API_KEY environment variable is not set")
		return nil
	}

	return &OpenAIEmbeddingClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        "https://api.openai.com/v1/embeddings",
		model:      model,
	}
}

func (c *OpenAIEmbeddingClient) GetEmbedding(ctx context.Context, text string) ([]float32, Usage, error) {
	request := embeddingRequest{
		Model: c.model,
		Input: text,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, Usage{}, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, Usage{}, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Usage{}, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Usage{}, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, Usage{}, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response embeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, Usage{}, fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(response.Data) == 0 {
		return nil, Usage{}, fmt.Errorf("no embedding in response")
	}

	return response.Data[0].Embedding, response.Usage, nil
}

// OpenAI embedding API types
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Model string          `json:"model"`
	Usage Usage           `json:"usage"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}
