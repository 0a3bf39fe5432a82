package config

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL returns the profile of the token owner.
const GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleOAuth returns the Google login configuration, or nil when Google
// login is not configured.
func GoogleOAuth(cfg *Config) *oauth2.Config {
	if !cfg.GoogleOAuthEnabled() {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}
