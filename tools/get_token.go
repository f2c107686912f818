package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"

	"outreach-engine-go/internal/config"
)

// One-off helper that walks the OAuth2 consent flow with the client
// credentials from the regular configuration and prints the refresh
// token the Gmail sender needs.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Gmail.ClientID == "" || cfg.Gmail.ClientSecret == "" {
		logrus.Fatal("gmail.client_id and gmail.client_secret must be configured before requesting a token")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.Gmail.ClientID,
		ClientSecret: cfg.Gmail.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://localhost:8080/callback",
	}

	fmt.Println("Open this URL in a browser and approve access:")
	fmt.Println(oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
	fmt.Print("\nPaste the code parameter from the redirect URL: ")

	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		logrus.Fatalf("Failed to read authorization code: %v", err)
	}

	tok, err := oauthCfg.Exchange(context.Background(), strings.TrimSpace(code))
	if err != nil {
		logrus.Fatalf("Code exchange failed: %v", err)
	}
	if tok.RefreshToken == "" {
		logrus.Fatal("No refresh token returned; revoke the app's access in the Google account and run the flow again")
	}

	fmt.Printf("\nRefresh token: %s\n", tok.RefreshToken)
	fmt.Println("\nStore it as gmail.refresh_token in config.yaml, or export it:")
	fmt.Printf("export GMAIL_REFRESH_TOKEN=%q\n", tok.RefreshToken)
}
