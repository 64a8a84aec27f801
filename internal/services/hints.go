package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"intervia-backend/internal/models"
)

// HintService generates a nudge-level hint for the active question.
// Hints are cached per question in Redis so repeated reveals of the same
// question do not burn model calls.
type HintService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	redis    *redis.Client
	rateChan chan struct{} // token bucket bounding concurrent model calls
}

func NewHintService(apiKey string, concurrentReqs int, redisClient *redis.Client) (*HintService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-3-flash-preview")
	model.SetTemperature(0.4)
	model.SetTopP(0.95)

	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &HintService{
		client:   client,
		model:    model,
		redis:    redisClient,
		rateChan: rateChan,
	}, nil
}

func (s *HintService) Close() {
	s.client.Close()
}

func (s *HintService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for hint rate slot")
	}
}

func (s *HintService) releaseRate() {
	s.rateChan <- struct{}{}
}

// HintFor returns a short hint for the question, generating it on first
// request and caching it for a week.
func (s *HintService) HintFor(ctx context.Context, question models.Question) (string, error) {
	cacheKey := "hint:" + question.ID.String()
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			return cached, nil
		}
	}

	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	prompt := fmt.Sprintf(`You are an interview coach. A candidate is working on this %s interview question (difficulty: %s):

%q

Give one short hint (2-3 sentences) that points at the right approach without revealing the solution. Plain text only.`,
		question.Category, question.Difficulty, question.Title)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate hint: %w", err)
	}

	hint := strings.TrimSpace(extractText(resp))
	if hint == "" {
		return "", fmt.Errorf("empty hint response for question %s", question.ID)
	}

	if s.redis != nil {
		s.redis.Set(ctx, cacheKey, hint, 7*24*time.Hour)
	}

	return hint, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}
