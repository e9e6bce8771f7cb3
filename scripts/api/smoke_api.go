// Minimal end-to-end smoke test for a running guildbot API.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	baseURL   = getenv("API_URL", "http://localhost:8080")
	guildID   = getenv("GUILD_ID", "")
	jwtSecret = getenv("API_JWT_SECRET", "")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

type suggestion struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Upvotes   int64  `json:"upvotes"`
	Downvotes int64  `json:"downvotes"`
}

func main() {
	if guildID == "" {
		log.Fatal("GUILD_ID is required")
	}
	token := mintToken()

	var health struct{ OK bool }
	doGet("", "/healthz", &health, http.StatusOK)
	if !health.OK {
		log.Fatal("healthz: not ok")
	}

	var list struct{ Suggestions []suggestion }
	doGet(token, "/v1/guilds/"+guildID+"/suggestions?limit=5", &list, http.StatusOK)
	fmt.Printf("guild %s: %d recent suggestions\n", guildID, len(list.Suggestions))

	for _, s := range list.Suggestions {
		var one suggestion
		doGet(token, "/v1/suggestions/"+s.ID, &one, http.StatusOK)
		if one.Upvotes < 0 || one.Downvotes < 0 || one.Status == "" {
			log.Fatalf("suggestion %s: bad payload %+v", s.ID, one)
		}
	}

	doGet(token, "/v1/suggestions/zzzzzzzz", nil, http.StatusNotFound)
	fmt.Println("✓ all endpoints passed")
}

// mintToken signs a short-lived token when the API requires one.
func mintToken() string {
	if jwtSecret == "" {
		return ""
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "smoke-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}).SignedString([]byte(jwtSecret))
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}
	return tok
}

func doGet(token, path string, out any, want int) {
	req, _ := http.NewRequest(http.MethodGet, baseURL+path, nil)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("GET %s: %v", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("GET %s: want %d got %d", path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("GET %s decode: %v", path, err)
		}
	}
}
