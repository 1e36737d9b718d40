package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tendant/simple-linkbio/pkg/linkbio"
	"github.com/tendant/simple-linkbio/pkg/linkbio/auth"
	"github.com/tendant/simple-linkbio/pkg/linkbio/config"
	"github.com/tendant/simple-linkbio/pkg/linkbio/repo/postgres"
)

const usage = `Link-in-bio Admin CLI

Operator tool for the link-in-bio store. It reads the same environment as the server.

USAGE:
  admin <command> [options]

COMMANDS:
  migrate        Create the database schema
  ping           Check the database connection
  owner          Create or refresh an owner account
  seed           Create a starter profile and links for the published owner
  stats          Show link click counts
  subscribers    List newsletter subscribers
  token          Issue a session token for an owner (requires SESSION_SECRET)
  hash-password  Print a bcrypt hash for ADMIN_PASSWORD_HASH
  schema         Print the PostgreSQL DDL applied by migrate

ENVIRONMENT VARIABLES:
  DATABASE_URL        memory, postgres://, sqlite://, libsql:// or mysql:// (default: memory)
  DB_SCHEMA           PostgreSQL search_path (optional)
  PUBLISHED_OWNER_ID  Owner whose page is public
  ADMIN_SUBJECT       Login subject that claims the published owner
  SESSION_SECRET      HMAC secret for session tokens

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  admin migrate
  admin owner --subject=google:1234 --name="Ada" --email=ada@example.com
  admin seed --name="Ada Lovelace" --instagram=https://instagram.com/ada
  admin stats --owner-id=0190f5a2-7c1e-7b3a-9d11-2a4c5e6f7a8b --limit=5
  admin subscribers --active --json
  admin token --owner-id=0190f5a2-7c1e-7b3a-9d11-2a4c5e6f7a8b
  admin hash-password --password=secret123

OPTIONS:
  --owner-id=<uuid>    Owner to act on (default: PUBLISHED_OWNER_ID)
  --subject=<s>        Login subject (owner; default: ADMIN_SUBJECT)
  --name=<s>           Display name (owner, seed)
  --email=<s>          Email address (owner)
  --limit=<n>          Top links only (stats)
  --active             Active subscribers only (subscribers)
  --password=<s>       Password to hash (hash-password)
  --<network>=<url>    Social link for seed: instagram, youtube, tiktok, twitter,
                       twitch, discord, telegram, email
  --json               Output as JSON
`

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage + "\n")
		os.Exit(1)
	}

	command := os.Args[1]

	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage + "\n")
		os.Exit(0)
	}

	flags := parseFlags(os.Args[2:])

	// hash-password and schema need no database
	switch command {
	case "hash-password":
		handleHashPassword(flags)
		return
	case "schema":
		fmt.Print(postgres.Schema())
		return
	}

	opts := []config.Option{config.WithEnv()}
	if command == "migrate" {
		opts = append(opts, config.WithAutoMigrate(true))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := cfg.Build(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}
	defer rt.Close()

	switch command {
	case "migrate":
		fmt.Printf("Schema ready (%s)\n", cfg.DatabaseType)
	case "ping":
		if err := rt.Ping(ctx); err != nil {
			log.Fatalf("Ping failed: %v", err)
		}
		fmt.Println("OK")
	case "owner":
		handleOwner(ctx, rt, cfg, flags)
	case "seed":
		handleSeed(ctx, rt, cfg, flags)
	case "stats":
		handleStats(ctx, rt, ownerFlag(cfg, flags), flags)
	case "subscribers":
		handleSubscribers(ctx, rt, ownerFlag(cfg, flags), flags)
	case "token":
		if err := requireSessionSecret(cfg); err != nil {
			log.Fatal(err)
		}
		handleToken(rt, ownerFlag(cfg, flags), flags)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage + "\n")
		os.Exit(1)
	}
}

type cliFlags map[string]string

func (f cliFlags) enabled(name string) bool {
	b, _ := strconv.ParseBool(f[name])
	return b
}

func (f cliFlags) optional(name string) *string {
	v, ok := f[name]
	if !ok || v == "" {
		return nil
	}
	return &v
}

func parseFlags(args []string) cliFlags {
	flags := cliFlags{}
	for _, arg := range args {
		key, value := parseFlag(arg)
		if key != "" {
			flags[key] = value
		}
	}
	return flags
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		for i, c := range arg {
			if c == '=' {
				return arg[:i], arg[i+1:]
			}
		}
		return arg, "true"
	}
	return "", ""
}

func ownerFlag(cfg *config.ServerConfig, flags cliFlags) uuid.UUID {
	value, ok := flags["owner-id"]
	if !ok {
		if cfg.PublishedOwnerID == uuid.Nil {
			log.Fatal("--owner-id is required when PUBLISHED_OWNER_ID is not set")
		}
		return cfg.PublishedOwnerID
	}
	id, err := uuid.Parse(value)
	if err != nil {
		log.Fatalf("Invalid --owner-id: %v", err)
	}
	return id
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func handleOwner(ctx context.Context, rt *config.Runtime, cfg *config.ServerConfig, flags cliFlags) {
	subject := flags["subject"]
	if subject == "" {
		subject = cfg.AdminSubject
	}
	if subject == "" {
		log.Fatal("--subject is required when ADMIN_SUBJECT is not set")
	}
	method := "cli"
	owner, err := rt.Service.SignIn(ctx, linkbio.SignInRequest{
		Subject:     subject,
		Name:        flags.optional("name"),
		Email:       flags.optional("email"),
		LoginMethod: &method,
	})
	if err != nil {
		log.Fatalf("Failed to create owner: %v", err)
	}

	if flags.enabled("json") {
		printJSON(owner)
		return
	}
	fmt.Printf("Owner:   %s\n", owner.ID)
	fmt.Printf("Subject: %s\n", owner.Subject)
	fmt.Printf("Role:    %s\n", owner.Role)
}

func handleSeed(ctx context.Context, rt *config.Runtime, cfg *config.ServerConfig, flags cliFlags) {
	if cfg.PublishedOwnerID == uuid.Nil || cfg.AdminSubject == "" {
		log.Fatal("seed requires PUBLISHED_OWNER_ID and ADMIN_SUBJECT")
	}
	owner, err := rt.Service.SignIn(ctx, linkbio.SignInRequest{Subject: cfg.AdminSubject, Name: flags.optional("name")})
	if err != nil {
		log.Fatalf("Failed to create owner: %v", err)
	}

	name := flags["name"]
	if name == "" {
		name = "My Links"
	}
	bio := "Everything I share, in one place."
	if _, err := rt.Service.UpdateProfile(ctx, owner.ID, linkbio.UpdateProfileRequest{
		DisplayName: name,
		Bio:         &bio,
		SocialLinks: socialLinks(flags),
	}); err != nil {
		log.Fatalf("Failed to create profile: %v", err)
	}

	existing, err := rt.Service.ListLinks(ctx, owner.ID)
	if err != nil {
		log.Fatalf("Failed to list links: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("Profile updated; %d links already present\n", len(existing))
		return
	}

	priority := true
	starters := []linkbio.CreateLinkRequest{
		{Title: "My website", URL: "https://example.com", IsPriority: &priority},
		{Title: "Latest video", URL: "https://www.youtube.com/"},
		{Title: "Newsletter archive", URL: "https://example.com/newsletter"},
	}
	for i := range starters {
		order := i
		starters[i].SortOrder = &order
		if _, err := rt.Service.CreateLink(ctx, owner.ID, starters[i]); err != nil {
			log.Fatalf("Failed to create link %q: %v", starters[i].Title, err)
		}
	}

	caption := "Featured"
	if _, err := rt.Service.CreateCarouselImage(ctx, owner.ID, linkbio.CreateCarouselImageRequest{
		ImageURL: "https://picsum.photos/seed/linkbio/1200/600",
		Title:    &caption,
	}); err != nil {
		log.Fatalf("Failed to create carousel image: %v", err)
	}

	price := "$19.99"
	if _, err := rt.Service.CreateProduct(ctx, owner.ID, linkbio.CreateProductRequest{
		Name:         "Favorite gear",
		ImageURL:     "https://picsum.photos/seed/gear/600/600",
		AffiliateURL: "https://example.com/gear",
		Price:        &price,
	}); err != nil {
		log.Fatalf("Failed to create product: %v", err)
	}

	fmt.Printf("Seeded profile %q with %d links, 1 carousel image and 1 product for owner %s\n", name, len(starters), owner.ID)
}

func handleStats(ctx context.Context, rt *config.Runtime, ownerID uuid.UUID, flags cliFlags) {
	limit := 0
	if v, ok := flags["limit"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid --limit: %v", err)
		}
		limit = n
	}
	stats, err := rt.Service.LinkStats(ctx, ownerID, limit)
	if err != nil {
		log.Fatalf("Failed to get statistics: %v", err)
	}

	if flags.enabled("json") {
		printJSON(stats)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "LINK\tTITLE\tPRIORITY\tCLICKS\n")
	for _, link := range stats.Links {
		fmt.Fprintf(w, "%s\t%s\t%t\t%d\n", link.LinkID.String()[:8]+"...", truncate(link.Title, 30), link.IsPriority, link.ClickCount)
	}
	w.Flush()
	fmt.Printf("\nTotal clicks: %d\n", stats.TotalClicks)
}

func handleSubscribers(ctx context.Context, rt *config.Runtime, ownerID uuid.UUID, flags cliFlags) {
	subscribers, err := rt.Service.ListSubscribers(ctx, ownerID, linkbio.ListSubscribersRequest{ActiveOnly: flags.enabled("active")})
	if err != nil {
		log.Fatalf("Failed to list subscribers: %v", err)
	}

	if flags.enabled("json") {
		printJSON(subscribers)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "EMAIL\tACTIVE\tSUBSCRIBED\n")
	for _, s := range subscribers {
		fmt.Fprintf(w, "%s\t%t\t%s\n", s.Email, s.IsActive, s.SubscribedAt.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
	fmt.Printf("\nTotal: %d\n", len(subscribers))
}

// requireSessionSecret rejects the random per-process secret Build falls back
// to, since a token signed with it never verifies against the server.
func requireSessionSecret(cfg *config.ServerConfig) error {
	if cfg.Auth.SessionSecret == "" {
		return errors.New("SESSION_SECRET must be set to issue tokens the server accepts")
	}
	return nil
}

func handleToken(rt *config.Runtime, ownerID uuid.UUID, flags cliFlags) {
	token, expires, err := rt.Sessions.Issue(ownerID)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	if flags.enabled("json") {
		printJSON(map[string]interface{}{"token": token, "expiresAt": expires})
		return
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expires.Format(time.RFC3339))
}

func handleHashPassword(flags cliFlags) {
	password := flags["password"]
	if password == "" {
		log.Fatal("--password is required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}

// socialLinks collects --<network>=<url> flags for the well-known networks
func socialLinks(flags cliFlags) linkbio.SocialLinks {
	links := linkbio.SocialLinks{}
	for _, network := range linkbio.WellKnownSocialNetworks {
		if url := flags.optional(network); url != nil {
			links[network] = *url
		}
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
