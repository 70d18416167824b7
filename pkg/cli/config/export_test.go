package config

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewAppForTest creates an App config for testing purposes
func NewAppForTest(path string) *App {
	return &App{path: path}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, redisURL string) *Repository {
	return &Repository{backend: backend, projectID: projectID, redisURL: redisURL}
}

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, anthropicAPIKey, geminiProjectID string) *LLM {
	return &LLM{
		provider: provider,
		Claude:   Claude{apiKey: anthropicAPIKey, model: "claude-test", maxTokens: 100},
		Gemini:   Gemini{projectID: geminiProjectID, location: "us-central1"},
	}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channelID, baseURL string) *Slack {
	return &Slack{botToken: botToken, channelID: channelID, baseURL: baseURL}
}

// NewGitHubForTest creates a GitHub config for testing purposes
func NewGitHubForTest(appID, installationID int, privateKey, owner, repo string) *GitHub {
	return &GitHub{
		appID:          appID,
		installationID: installationID,
		privateKey:     privateKey,
		owner:          owner,
		repo:           repo,
	}
}

// NewArchiveForTest creates an Archive config for testing purposes
func NewArchiveForTest(bucket, prefix string) *Archive {
	return &Archive{bucket: bucket, prefix: prefix}
}

// NewSentryForTest creates a Sentry config for testing purposes
func NewSentryForTest(dsn string) *Sentry {
	return &Sentry{dsn: dsn}
}
