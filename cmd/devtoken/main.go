// Command devtoken signs an access token with the API's configured secret,
// for local testing against a running service.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spec-kit/production-booking/internal/auth"
	"github.com/spec-kit/production-booking/internal/config"
	"github.com/spec-kit/production-booking/internal/domain"
)

func main() {
	subject := flag.String("sub", "", "actor id carried by the token")
	capability := flag.String("capability", string(domain.CapabilityBookingOfficer), "producer, booking_officer or crew")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	token, expiresAt, err := issue(cfg.Auth, domain.Actor{ID: *subject, Capability: domain.Capability(*capability)})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
}

func issue(cfg config.AuthConfig, actor domain.Actor) (string, time.Time, error) {
	return auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes).GenerateToken(actor)
}
