package media

import (
	"fmt"
	"net/url"
	"strings"
)

// EmbedURL converts a YouTube watch or youtu.be link into an embeddable URL
func EmbedURL(mediaURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(mediaURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotYouTube, err)
	}

	var videoID string
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch {
	case host == "youtu.be":
		videoID = strings.Trim(u.Path, "/")
	case host == "youtube.com" || host == "m.youtube.com":
		if strings.HasPrefix(u.Path, "/embed/") {
			videoID = strings.TrimPrefix(u.Path, "/embed/")
		} else {
			videoID = u.Query().Get("v")
		}
	}

	if videoID == "" {
		return "", fmt.Errorf("%w: %s", ErrNotYouTube, mediaURL)
	}
	return "https://www.youtube.com/embed/" + videoID, nil
}
