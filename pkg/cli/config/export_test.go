package config

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

func NewRepositoryForTest(backend, projectID, postgresDSN string) *Repository {
	return &Repository{
		backend:     backend,
		projectID:   projectID,
		postgresDSN: postgresDSN,
	}
}

func NewEmbeddingForTest(backend, indexingEmbedder string) *Embedding {
	return &Embedding{
		backend:          backend,
		indexingEmbedder: indexingEmbedder,
	}
}

func NewLockForTest(backend, redisAddr string) *Lock {
	return &Lock{
		backend:   backend,
		redisAddr: redisAddr,
	}
}

func NewChatForTest(mode string) *Chat {
	return &Chat{mode: mode}
}

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewAppForTest(path string) *App {
	return &App{path: path}
}

var MismatchWarning = mismatchWarning
