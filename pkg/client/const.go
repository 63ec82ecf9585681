package client

import "time"

const (
	// HelixBaseURL - Twitch Helix API root
	HelixBaseURL = "https://api.twitch.tv/helix"
	// TokenURL - Twitch OAuth token endpoint used for app access tokens
	TokenURL = "https://id.twitch.tv/oauth2/token"
	// ChannelBaseURL - public channel page, used as the downloader input
	ChannelBaseURL = "https://twitch.tv"

	// MaxLoginsPerRequest - Helix limit of user_login query params per request
	MaxLoginsPerRequest = 100
	// RequestTimeout - timeout of a single API request
	RequestTimeout = 10 * time.Second
	// StreamTypeLive - stream type reported for channels which are live
	StreamTypeLive = "live"
)
