package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dhruv200010/rentmanager/internal/config"
	"github.com/dhruv200010/rentmanager/internal/leads"
	"github.com/dhruv200010/rentmanager/internal/logger"
	"github.com/dhruv200010/rentmanager/internal/version"
)

type cliOptions struct {
	configPath  string
	username    string
	password    string
	timeout     time.Duration
	apiBaseURL  string
	jwtToken    string
	list        bool
	archived    bool
	query       string
	filter      string
	showVersion bool
}

func main() {
	opts := parseFlags()
	if opts.showVersion {
		fmt.Printf("Rent Manager CLI %s\n", version.GetInfo())
		return
	}
	ctx := context.Background()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if strings.TrimSpace(opts.apiBaseURL) == "" {
		opts.apiBaseURL = defaultAPIBaseURL(cfg.Server.Addr)
	}
	if strings.TrimSpace(opts.apiBaseURL) == "" {
		logger.Error("api url is required")
		os.Exit(1)
	}
	opts.apiBaseURL = normalizeBaseURL(opts.apiBaseURL)

	jwtToken := strings.TrimSpace(opts.jwtToken)
	client := &http.Client{Timeout: opts.timeout}
	if jwtToken == "" {
		username, password, err := resolveLoginCredentials(opts, cfg)
		if err != nil {
			logger.Error("resolve login", slog.Any("error", err))
			os.Exit(1)
		}
		jwtToken, err = loginForToken(ctx, client, opts.apiBaseURL, username, password)
		if err != nil {
			logger.Error("login failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if opts.list || opts.archived {
		if err := listLeads(ctx, client, opts, jwtToken); err != nil {
			logger.Error("list leads failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	message := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if message == "" {
		fmt.Fprintln(os.Stderr, "usage: rentmanager-cli [flags] <lead message>   (or -list / -archived)")
		os.Exit(2)
	}
	if err := intakeLead(ctx, client, opts.apiBaseURL, jwtToken, message); err != nil {
		logger.Error("intake failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func parseFlags() cliOptions {
	var opts cliOptions
	defaultConfig := os.Getenv("CONFIG_PATH")
	if strings.TrimSpace(defaultConfig) == "" {
		defaultConfig = config.DefaultConfigPath
	}

	flag.StringVar(&opts.configPath, "config", defaultConfig, "Path to config.toml")
	flag.StringVar(&opts.username, "username", "", "Username for login")
	flag.StringVar(&opts.password, "password", "", "Password for login (or set RENTMANAGER_PASSWORD)")
	flag.StringVar(&opts.jwtToken, "jwt", "", "JWT token (optional)")
	flag.StringVar(&opts.apiBaseURL, "api-url", "", "API server base URL (e.g. http://127.0.0.1:8080)")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	flag.BoolVar(&opts.list, "list", false, "List active leads")
	flag.BoolVar(&opts.archived, "archived", false, "List archived leads")
	flag.StringVar(&opts.query, "query", "", "Search query for -list/-archived")
	flag.StringVar(&opts.filter, "filter", "", "Status filter for -list (all, pending, triggered)")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version information")
	flag.Parse()

	return opts
}

func normalizeBaseURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

func defaultAPIBaseURL(addr string) string {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return normalizeBaseURL(trimmed)
	}
	if strings.HasPrefix(trimmed, ":") {
		return "http://127.0.0.1" + trimmed
	}
	return "http://" + trimmed
}

func resolveLoginCredentials(opts cliOptions, cfg config.Config) (string, string, error) {
	username := strings.TrimSpace(opts.username)
	if username == "" {
		username = strings.TrimSpace(cfg.Admin.Username)
	}
	if username == "" {
		return "", "", fmt.Errorf("username is required for login")
	}

	password := strings.TrimSpace(opts.password)
	if password == "" {
		password = strings.TrimSpace(os.Getenv("RENTMANAGER_PASSWORD"))
	}
	if password == "" {
		if candidate := strings.TrimSpace(cfg.Admin.Password); candidate != "" && candidate != "change-your-password-here" {
			password = candidate
		}
	}
	if password == "" {
		return "", "", fmt.Errorf("password is required; pass --password or set RENTMANAGER_PASSWORD")
	}
	return username, password, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func loginForToken(ctx context.Context, client *http.Client, baseURL, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	resp, err := postJSON(ctx, client, baseURL+"/auth/login", "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return "", fmt.Errorf("login succeeded but token missing")
	}
	return parsed.AccessToken, nil
}

type intakeRequest struct {
	Message string `json:"message"`
}

func intakeLead(ctx context.Context, client *http.Client, baseURL, jwtToken, message string) error {
	body, err := json.Marshal(intakeRequest{Message: message})
	if err != nil {
		return err
	}
	resp, err := postJSON(ctx, client, baseURL+"/leads/intake", jwtToken, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}

	var lead leads.Lead
	if err := json.NewDecoder(resp.Body).Decode(&lead); err != nil {
		return err
	}
	fmt.Printf("Created lead %s\n", lead.ID)
	printLead(lead)
	return nil
}

func listLeads(ctx context.Context, client *http.Client, opts cliOptions, jwtToken string) error {
	url := opts.apiBaseURL + "/leads"
	if opts.archived {
		url += "/archived"
	}
	sep := "?"
	if opts.query != "" {
		url += sep + "query=" + opts.query
		sep = "&"
	}
	if opts.filter != "" && !opts.archived {
		url += sep + "filter=" + opts.filter
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+jwtToken)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}

	var items []leads.Lead
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No leads.")
		return nil
	}
	for _, lead := range items {
		printLead(lead)
	}
	return nil
}

func printLead(lead leads.Lead) {
	line := fmt.Sprintf("  [%s] %s | %s | alert %s",
		lead.Status, lead.Name, lead.Category, lead.AlertTime.Local().Format("Mon Jan 2 15:04"))
	if lead.ContactNo != "" {
		line += " | " + lead.ContactNo
	}
	if lead.Source != "" {
		line += " | " + lead.Source
	}
	fmt.Println(line)
}

func postJSON(ctx context.Context, client *http.Client, url, jwtToken string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if jwtToken != "" {
		req.Header.Set("Authorization", "Bearer "+jwtToken)
	}
	return client.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	payload, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("api server error: %s", strings.TrimSpace(string(payload)))
}
