package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	CommandReview       = "review"
	CommandUpdateDocs   = "update-docs"
	CommandWaitWorkflow = "wait-workflow"
)

type (
	Config struct {
		GitHub   GitHubConfig `toml:"github" yaml:"github"`
		AI       AIConfig     `toml:"ai" yaml:"ai"`
		Review   ReviewConfig `toml:"review" yaml:"review"`
		Docs     DocsConfig   `toml:"docs" yaml:"docs"`
		Language string       `toml:"language" yaml:"language"`

		PR      PRConfig `toml:"-" yaml:"-"`
		Debug   bool     `toml:"debug" yaml:"debug"`
		Verbose bool     `toml:"verbose" yaml:"verbose"`

		// PathFile is the config file that was loaded, empty when none was found.
		PathFile string `toml:"-" yaml:"-"`

		rawPRNumber string
	}

	GitHubConfig struct {
		Token  string `toml:"-" yaml:"-"`
		Owner  string `toml:"owner" yaml:"owner"`
		Repo   string `toml:"repo" yaml:"repo"`
		APIURL string `toml:"api_url" yaml:"api_url"`
	}

	AIConfig struct {
		Provider        AI     `toml:"provider" yaml:"provider"`
		Model           string `toml:"model" yaml:"model"`
		ReviewMaxTokens int    `toml:"review_max_tokens" yaml:"review_max_tokens"`
		DocsMaxTokens   int    `toml:"docs_max_tokens" yaml:"docs_max_tokens"`

		AnthropicAPIKey string `toml:"-" yaml:"-"`
		GeminiAPIKey    string `toml:"-" yaml:"-"`
		OpenAIAPIKey    string `toml:"-" yaml:"-"`
	}

	ReviewConfig struct {
		PrerequisiteWorkflow string        `toml:"prerequisite_workflow" yaml:"prerequisite_workflow"`
		WaitTimeout          time.Duration `toml:"wait_timeout" yaml:"wait_timeout"`
		PollInterval         time.Duration `toml:"poll_interval" yaml:"poll_interval"`
	}

	DocsConfig struct {
		TrunkBranch  string   `toml:"trunk_branch" yaml:"trunk_branch"`
		Extension    string   `toml:"extension" yaml:"extension"`
		MaxFiles     int      `toml:"max_files" yaml:"max_files"`
		ExcludedDirs []string `toml:"excluded_dirs" yaml:"excluded_dirs"`
		Root         string   `toml:"root" yaml:"root"`
	}

	PRConfig struct {
		Number int
		Title  string
		Body   string
	}

	// LoadOptions controls where configuration is read from. Zero values use
	// the process environment and the current directory.
	LoadOptions struct {
		Path       string
		WorkDir    string
		Getenv     func(string) string
		SkipDotEnv bool
	}
)

const (
	defaultLang                 = LangEN
	defaultProvider             = AIAnthropic
	defaultReviewMaxTokens      = 4096
	defaultDocsMaxTokens        = 8192
	defaultPrerequisiteWorkflow = "Generate Documentation"
	defaultWaitTimeout          = 10 * time.Minute
	defaultPollInterval         = 30 * time.Second
	defaultTrunkBranch          = "origin/main"
	defaultDocsExtension        = ".md"
	defaultDocsMaxFiles         = 10
	defaultGitHubAPIURL         = "https://api.github.com/"
)

var defaultConfigFiles = []string{".matebot.toml", ".matebot.yaml", ".matebot.yml"}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIURL: defaultGitHubAPIURL,
		},
		AI: AIConfig{
			Provider:        defaultProvider,
			ReviewMaxTokens: defaultReviewMaxTokens,
			DocsMaxTokens:   defaultDocsMaxTokens,
		},
		Review: ReviewConfig{
			PrerequisiteWorkflow: defaultPrerequisiteWorkflow,
			WaitTimeout:          defaultWaitTimeout,
			PollInterval:         defaultPollInterval,
		},
		Docs: DocsConfig{
			TrunkBranch:  defaultTrunkBranch,
			Extension:    defaultDocsExtension,
			MaxFiles:     defaultDocsMaxFiles,
			ExcludedDirs: []string{"node_modules", "vendor", ".git"},
			Root:         ".",
		},
		Language: defaultLang,
	}
}

// Load builds the configuration from defaults, an optional config file, an
// optional .env file and the environment, in that order of precedence.
func Load(opts LoadOptions) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}

	if !opts.SkipDotEnv {
		if err := godotenv.Load(filepath.Join(workDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, domainErrors.ErrInvalidConfig.WithError(err).WithContext("file", ".env")
		}
	}

	cfg := Default()

	path := opts.Path
	if path == "" {
		path = getenv("MATEBOT_CONFIG")
	}
	if path == "" {
		path = findConfigFile(workDir)
	}

	if path != "" {
		if err := loadFile(path, cfg, getenv); err != nil {
			return nil, err
		}
		cfg.PathFile = path
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	cfg.Language = GetLocaleConfig(cfg.Language)

	return cfg, nil
}

func findConfigFile(workDir string) string {
	for _, name := range defaultConfigFiles {
		candidate := filepath.Join(workDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func loadFile(path string, cfg *Config, getenv func(string) string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domainErrors.ErrInvalidConfig.WithError(err).WithContext("file", path)
	}

	expanded := os.Expand(string(raw), getenv)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return domainErrors.ErrInvalidConfig.WithError(err).WithContext("file", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return domainErrors.ErrInvalidConfig.WithError(err).WithContext("file", path)
		}
	default:
		return domainErrors.ErrInvalidConfig.
			WithContext("file", path).
			WithSuggestion("Use a .toml, .yaml or .yml config file")
	}

	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	cfg.GitHub.Token = strings.TrimSpace(getenv("GITHUB_TOKEN"))
	if repository := getenv("GITHUB_REPOSITORY"); repository != "" {
		if owner, repo, ok := strings.Cut(repository, "/"); ok {
			cfg.GitHub.Owner = owner
			cfg.GitHub.Repo = repo
		}
	}
	setString(&cfg.GitHub.Owner, "REPO_OWNER")
	setString(&cfg.GitHub.Repo, "REPO_NAME")
	setString(&cfg.GitHub.APIURL, "GITHUB_API_URL")

	cfg.AI.AnthropicAPIKey = strings.TrimSpace(getenv("ANTHROPIC_API_KEY"))
	cfg.AI.GeminiAPIKey = strings.TrimSpace(getenv("GEMINI_API_KEY"))
	cfg.AI.OpenAIAPIKey = strings.TrimSpace(getenv("OPENAI_API_KEY"))
	if provider := strings.TrimSpace(getenv("MATEBOT_AI_PROVIDER")); provider != "" {
		cfg.AI.Provider = AI(strings.ToLower(provider))
	}
	setString(&cfg.AI.Model, "MATEBOT_MODEL")

	setString(&cfg.Language, "MATEBOT_LANGUAGE")
	setString(&cfg.Review.PrerequisiteWorkflow, "MATEBOT_PREREQUISITE_WORKFLOW")
	setString(&cfg.Docs.TrunkBranch, "MATEBOT_TRUNK_BRANCH")

	for key, dst := range map[string]*time.Duration{
		"MATEBOT_WAIT_TIMEOUT":  &cfg.Review.WaitTimeout,
		"MATEBOT_POLL_INTERVAL": &cfg.Review.PollInterval,
	} {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return domainErrors.ErrInvalidConfig.WithError(err).WithContext("variable", key)
		}
		*dst = d
	}

	if v := getenv("MATEBOT_DEBUG"); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}
	if v := getenv("MATEBOT_VERBOSE"); v != "" {
		cfg.Verbose, _ = strconv.ParseBool(v)
	}

	cfg.rawPRNumber = strings.TrimSpace(getenv("PR_NUMBER"))
	if n, err := strconv.Atoi(cfg.rawPRNumber); err == nil {
		cfg.PR.Number = n
	}
	cfg.PR.Title = getenv("PR_TITLE")
	cfg.PR.Body = getenv("PR_BODY")

	return nil
}

// APIKey returns the key of the active AI provider.
func (c *Config) APIKey() string {
	switch c.AI.Provider {
	case AIAnthropic:
		return c.AI.AnthropicAPIKey
	case AIGemini:
		return c.AI.GeminiAPIKey
	case AIOpenAI:
		return c.AI.OpenAIAPIKey
	default:
		return ""
	}
}

// ModelName returns the configured model or the provider default.
func (c *Config) ModelName() string {
	if c.AI.Model != "" {
		return c.AI.Model
	}
	return string(DefaultModelForAI(c.AI.Provider))
}

// Validate checks the settings the given command needs.
func (c *Config) Validate(command string) error {
	needsGitHub := command == CommandReview || command == CommandWaitWorkflow
	needsAI := command == CommandReview || command == CommandUpdateDocs

	if needsGitHub {
		if c.GitHub.Token == "" {
			return domainErrors.ErrTokenMissing
		}
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			return domainErrors.ErrRepositoryMissing
		}
	}

	if command == CommandReview && c.PR.Number <= 0 {
		return domainErrors.ErrPRNumberMissing.WithContext("value", c.rawPRNumber)
	}

	if needsAI {
		if !IsSupportedAI(c.AI.Provider) {
			return domainErrors.ErrProviderNotSupported.WithContext("provider", string(c.AI.Provider))
		}
		if c.APIKey() == "" {
			return domainErrors.ErrAPIKeyMissing.WithContext("provider", string(c.AI.Provider))
		}
	}

	if command == CommandReview || command == CommandWaitWorkflow {
		if c.Review.WaitTimeout <= 0 || c.Review.PollInterval <= 0 {
			return domainErrors.ErrInvalidConfig.
				WithContext("reason", "wait timeout and poll interval must be positive")
		}
	}

	if command == CommandUpdateDocs {
		if c.Docs.MaxFiles <= 0 {
			return domainErrors.ErrInvalidConfig.WithContext("reason", "docs max_files must be positive")
		}
		if c.Docs.Extension == "" || c.Docs.TrunkBranch == "" {
			return domainErrors.ErrInvalidConfig.WithContext("reason", "docs extension and trunk branch are required")
		}
	}

	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("provider=%s model=%s repo=%s/%s pr=%d language=%s",
		c.AI.Provider, c.ModelName(), c.GitHub.Owner, c.GitHub.Repo, c.PR.Number, c.Language)
}
