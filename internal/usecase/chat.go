package usecase

import (
	"context"
)

// ChatUsecase defines the business logic for chat token issuance.
type ChatUsecase interface {
	// TokenForAccount mints a chat token for an authenticated account.
	TokenForAccount(ctx context.Context, accountID, username string) (string, error)

	// PublicToken mints a chat token for an arbitrary caller-supplied id.
	// The chat user is always registered with the least-privileged role;
	// elevation is never granted on this path.
	PublicToken(ctx context.Context, userID, name string) (string, ChatUser, error)
}

type chatUsecase struct {
	chat ChatProvider
}

// NewChatUsecase creates a new instance of ChatUsecase.
func NewChatUsecase(chat ChatProvider) ChatUsecase {
	return &chatUsecase{chat: chat}
}

func (u *chatUsecase) TokenForAccount(ctx context.Context, accountID, username string) (string, error) {
	upsertCtx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()

	if err := u.chat.UpsertUser(upsertCtx, ChatUser{
		ID:   accountID,
		Name: username,
		Role: ChatRoleUser,
	}); err != nil {
		return "", ErrChatUnavailable
	}

	chatToken, err := u.chat.CreateToken(accountID)
	if err != nil {
		return "", ErrChatUnavailable
	}

	return chatToken, nil
}

func (u *chatUsecase) PublicToken(ctx context.Context, userID, name string) (string, ChatUser, error) {
	if name == "" {
		name = "Anonymous"
	}

	user := ChatUser{
		ID:   userID,
		Name: name,
		Role: ChatRoleUser,
	}

	upsertCtx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()

	if err := u.chat.UpsertUser(upsertCtx, user); err != nil {
		return "", ChatUser{}, ErrChatUnavailable
	}

	chatToken, err := u.chat.CreateToken(userID)
	if err != nil {
		return "", ChatUser{}, ErrChatUnavailable
	}

	return chatToken, user, nil
}
