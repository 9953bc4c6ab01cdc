package chat

import (
	"context"
	"time"

	stream "github.com/GetStream/stream-chat-go/v6"

	"github.com/telehealthhq/telehealth-api/internal/config"
	"github.com/telehealthhq/telehealth-api/internal/usecase"
)

// StreamProvider adapts the Stream Chat SDK to the usecase.ChatProvider
// capability. It is constructed once in the entrypoint and injected; nothing
// in this codebase reaches for a package-level client.
type StreamProvider struct {
	client *stream.Client
}

// NewStreamProvider creates a Stream Chat client from the vendor credentials.
func NewStreamProvider(cfg config.StreamConfig) (*StreamProvider, error) {
	client, err := stream.NewClient(cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, err
	}

	return &StreamProvider{client: client}, nil
}

func (p *StreamProvider) UpsertUser(ctx context.Context, user usecase.ChatUser) error {
	_, err := p.client.UpsertUser(ctx, &stream.User{
		ID:   user.ID,
		Name: user.Name,
		Role: user.Role,
	})

	return err
}

func (p *StreamProvider) CreateToken(userID string) (string, error) {
	// Zero expiry: chat token lifetime is managed by the vendor defaults.
	return p.client.CreateToken(userID, time.Time{})
}
