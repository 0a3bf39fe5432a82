package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const oauthStateKey = "oauth_state"

// NewOAuthState generates a random state and stores it in the session
func NewOAuthState(c *gin.Context) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %v", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	session := sessions.Default(c)
	session.Set(oauthStateKey, state)
	if err := session.Save(); err != nil {
		return "", fmt.Errorf("save session: %v", err)
	}
	return state, nil
}

// ConsumeOAuthState checks state against the session and clears it
func ConsumeOAuthState(c *gin.Context, state string) bool {
	session := sessions.Default(c)
	expected, _ := session.Get(oauthStateKey).(string)
	session.Delete(oauthStateKey)
	if err := session.Save(); err != nil {
		LogError("Failed to clear oauth state: %v", err)
	}
	return expected != "" && expected == state
}
