package config

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, dbPath string) *Repository {
	return &Repository{
		backend: backend,
		dbPath:  dbPath,
	}
}

// NewKnowledgeForTest creates a Knowledge config for testing purposes
func NewKnowledgeForTest(path string) *Knowledge {
	return &Knowledge{path: path}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}
