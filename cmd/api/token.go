package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"wpdesk/internal/handler/http/auth"
)

// issueToken implements "api issue-token -sub NAME [-ttl 24h]". It signs a
// bearer token with JWT_SECRET for the editor frontend.
func issueToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	sub := fs.String("sub", "", "token subject (required)")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *sub == "" || *ttl <= 0 {
		fmt.Fprintln(stderr, "issue-token: -sub is required and -ttl must be positive")
		return 2
	}

	a, err := auth.New(os.Getenv("JWT_SECRET"))
	if err != nil {
		fmt.Fprintf(stderr, "issue-token: JWT_SECRET: %v\n", err)
		return 1
	}
	tok, err := a.IssueToken(*sub, *ttl)
	if err != nil {
		fmt.Fprintf(stderr, "issue-token: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, tok)
	return 0
}
