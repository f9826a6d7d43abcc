package musicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/apperrors"
)

// Song is a catalog search hit. The backend persists only ID and Name;
// everything else is passed through to the client untouched.
type Song struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album"`
	Duration int      `json:"duration"`
	Cover    string   `json:"cover,omitempty"`
}

// SongURL is a playable URL resolution result
type SongURL struct {
	URL     string `json:"url"`
	Bitrate int    `json:"br"`
	Size    int64  `json:"size"`
}

// Config holds the catalog service location
type Config struct {
	BaseURL      string
	DefaultLimit int
}

// Client talks to the external music catalog API
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a new catalog client
func NewClient(config Config) *Client {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 30
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// upstream payload shapes (netease-compatible API)
type searchResponse struct {
	Result struct {
		Songs []struct {
			ID      json.Number `json:"id"`
			Name    string      `json:"name"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
			Duration int `json:"duration"`
		} `json:"songs"`
	} `json:"result"`
}

type songURLResponse struct {
	Data []struct {
		URL  string `json:"url"`
		Br   int    `json:"br"`
		Size int64  `json:"size"`
	} `json:"data"`
}

// Search queries the catalog for tracks matching query. Pages are 1-based;
// whitespace inside the query is stripped the way the upstream expects.
func (c *Client) Search(ctx context.Context, query string, page, count int) ([]Song, error) {
	if query == "" {
		return nil, apperrors.ErrValidationFailed
	}
	if count <= 0 {
		count = c.config.DefaultLimit
	}
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("keywords", strings.ReplaceAll(query, " ", ""))
	params.Set("limit", strconv.Itoa(count))
	params.Set("offset", strconv.Itoa((page-1)*count))

	var payload searchResponse
	if err := c.get(ctx, "/search", params, &payload); err != nil {
		return nil, err
	}

	songs := make([]Song, 0, len(payload.Result.Songs))
	for _, item := range payload.Result.Songs {
		artists := make([]string, 0, len(item.Artists))
		for _, artist := range item.Artists {
			artists = append(artists, artist.Name)
		}
		songs = append(songs, Song{
			ID:       item.ID.String(),
			Name:     item.Name,
			Artists:  artists,
			Album:    item.Album.Name,
			Duration: item.Duration,
		})
	}

	return songs, nil
}

// ResolveURL resolves a playable URL for a track id. The URL's reachability
// is not verified here.
func (c *Client) ResolveURL(ctx context.Context, songID, bitrate string) (*SongURL, error) {
	if songID == "" {
		return nil, apperrors.ErrValidationFailed
	}

	params := url.Values{}
	params.Set("id", songID)
	if bitrate != "" {
		params.Set("br", bitrate)
	}

	var payload songURLResponse
	if err := c.get(ctx, "/song/url", params, &payload); err != nil {
		return nil, err
	}

	if len(payload.Data) == 0 || payload.Data[0].URL == "" {
		return nil, fmt.Errorf("%w: no playable url for song %s", apperrors.ErrResourceNotFound, songID)
	}

	return &SongURL{
		URL:     payload.Data[0].URL,
		Bitrate: payload.Data[0].Br,
		Size:    payload.Data[0].Size,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: catalog request failed: %v", apperrors.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: catalog returned status %d", apperrors.ErrExternalService, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode catalog response: %v", apperrors.ErrExternalService, err)
	}

	return nil
}
