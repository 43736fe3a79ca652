package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/utils"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// ProfileProvider resolves a validated token to the identity a player is seated with.
type ProfileProvider interface {
	GetProfile(ctx context.Context, token string, claims *utils.Claims) (models.Profile, error)
}

var ErrPlayerMismatch = errors.New("profile does not belong to the token's player")

// AuthService reads the authenticated user from the account API.
type AuthService struct {
	client   *ApiClient
	endpoint string
	timeout  time.Duration
}

func NewAuthService(baseURL string) *AuthService {
	return &AuthService{
		client:   NewApiClient(baseURL, 10*time.Second),
		endpoint: "/auth",
		timeout:  5 * time.Second,
	}
}

func (s *AuthService) GetUser(ctx context.Context, authToken string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var response models.ApiResponse[models.User]
	err := s.client.Get(ctx, s.endpoint+"/user", authToken, &response)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !response.Success {
		return nil, errors.New(response.Message)
	}

	return &response.Data, nil
}

func (s *AuthService) GetProfile(ctx context.Context, token string, claims *utils.Claims) (models.Profile, error) {
	user, err := s.GetUser(ctx, token)
	if err != nil {
		return models.Profile{}, err
	}

	profile := user.Profile()
	if profile.PlayerID != claims.PlayerID {
		return models.Profile{}, ErrPlayerMismatch
	}
	return profile, nil
}

func (s *AuthService) Close() {
	s.client.Close()
}

// ClaimsProfileProvider seats players straight from their token with a fixed balance.
type ClaimsProfileProvider struct {
	StartingBalance int
}

func (p ClaimsProfileProvider) GetProfile(_ context.Context, _ string, claims *utils.Claims) (models.Profile, error) {
	name := claims.DisplayName
	if name == "" {
		name = claims.PlayerID
	}
	return models.Profile{PlayerID: claims.PlayerID, DisplayName: name, Balance: p.StartingBalance}, nil
}
