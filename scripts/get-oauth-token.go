// One-off helper that walks through the OAuth2 consent flow and prints the
// refresh token vinted-ledger needs. Run with:
//
//	go run scripts/get-oauth-token.go <client-id> <client-secret>
//
// The requested scopes cover both APIs the pipeline uses: gmail.modify
// (search, read, label) and spreadsheets (append, validation).
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: go run scripts/get-oauth-token.go <client-id> <client-secret>")
		os.Exit(1)
	}

	config := &oauth2.Config{
		ClientID:     os.Args[1],
		ClientSecret: os.Args[2],
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://localhost:8090/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/gmail.modify",
			"https://www.googleapis.com/auth/spreadsheets",
		},
	}

	fmt.Println("Visit this URL in your browser and authorize the application:")
	fmt.Printf("\n%s\n\n", config.AuthCodeURL("state", oauth2.AccessTypeOffline))
	fmt.Println("Waiting for the redirect on http://localhost:8090/callback ...")

	authCode := make(chan string)
	server := &http.Server{Addr: ":8090"}
	http.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			fmt.Fprint(w, "no authorization code in redirect")
			return
		}
		fmt.Fprint(w, "Authorization received, you can close this window.")
		authCode <- code
	})
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	code := <-authCode
	server.Shutdown(context.Background())

	token, err := config.Exchange(context.Background(), code)
	if err != nil {
		log.Fatalf("token exchange failed: %v", err)
	}

	fmt.Println("\nAdd these to your environment:")
	fmt.Printf("VINTED_GMAIL_CLIENT_ID=%s\n", os.Args[1])
	fmt.Printf("VINTED_GMAIL_CLIENT_SECRET=%s\n", os.Args[2])
	fmt.Printf("VINTED_GMAIL_REFRESH_TOKEN=%s\n", token.RefreshToken)
}
