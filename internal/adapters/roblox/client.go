package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/viralforge/mesh/services/integrations/M92-offerwall-service/internal/domain"
)

type Config struct {
	UsersURL      string
	ThumbnailsURL string
	HTTPClient    *http.Client
}

// Client resolves a username against the platform's public identity
// APIs: a POST lookup for the canonical user, then a headshot fetch for
// the avatar URL.
type Client struct {
	httpClient    *http.Client
	usersURL      string
	thumbnailsURL string
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 8 * time.Second}
	}
	usersURL := cfg.UsersURL
	if usersURL == "" {
		usersURL = "https://users.roblox.com/v1/usernames/users"
	}
	thumbnailsURL := cfg.ThumbnailsURL
	if thumbnailsURL == "" {
		thumbnailsURL = "https://thumbnails.roblox.com/v1/users/avatar-headshot"
	}
	return &Client{httpClient: httpClient, usersURL: usersURL, thumbnailsURL: thumbnailsURL}
}

type usernameLookupRequest struct {
	Usernames          []string `json:"usernames"`
	ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
}

type usernameLookupResponse struct {
	Data []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"data"`
}

type thumbnailResponse struct {
	Data []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"data"`
}

func (c *Client) LookupUser(ctx context.Context, username string) (domain.PlayerIdentity, error) {
	payload, _ := json.Marshal(usernameLookupRequest{Usernames: []string{username}, ExcludeBannedUsers: true})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.usersURL, bytes.NewReader(payload))
	if err != nil {
		return domain.PlayerIdentity{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PlayerIdentity{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return domain.PlayerIdentity{}, fmt.Errorf("%w: users api status %d", domain.ErrDependencyUnavailable, res.StatusCode)
	}
	var users usernameLookupResponse
	if err := json.NewDecoder(res.Body).Decode(&users); err != nil {
		return domain.PlayerIdentity{}, fmt.Errorf("%w: users api payload", domain.ErrDependencyUnavailable)
	}
	if len(users.Data) == 0 || users.Data[0].ID == 0 {
		return domain.PlayerIdentity{}, domain.ErrNotFound
	}
	user := users.Data[0]

	avatarURL, err := c.fetchHeadshot(ctx, user.ID)
	if err != nil {
		return domain.PlayerIdentity{}, err
	}
	return domain.PlayerIdentity{
		UserID:      user.ID,
		Username:    user.Name,
		DisplayName: user.DisplayName,
		AvatarURL:   avatarURL,
	}, nil
}

func (c *Client) fetchHeadshot(ctx context.Context, userID int64) (string, error) {
	lookupURL := c.thumbnailsURL + "?userIds=" + strconv.FormatInt(userID, 10) + "&size=150x150&format=Png&isCircular=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", err
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: thumbnails api status %d", domain.ErrDependencyUnavailable, res.StatusCode)
	}
	var thumbs thumbnailResponse
	if err := json.NewDecoder(res.Body).Decode(&thumbs); err != nil {
		return "", fmt.Errorf("%w: thumbnails api payload", domain.ErrDependencyUnavailable)
	}
	if len(thumbs.Data) == 0 || thumbs.Data[0].ImageURL == "" {
		return "", domain.ErrNotFound
	}
	return thumbs.Data[0].ImageURL, nil
}
