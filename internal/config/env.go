package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables consulted for the default credential, in order.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// DefaultEnvFile is the dotenv file loaded from the working directory.
const DefaultEnvFile = ".env"

// LoadDotEnv loads variables from the given dotenv files into the process
// environment. Variables that are already set are left untouched, and
// missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultEnvFile}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ResolveCredential returns explicit when it is non-empty, otherwise the
// first non-empty credential found in the environment. It returns an empty
// string when no credential is available.
func ResolveCredential(explicit string) string {
	if key := strings.TrimSpace(explicit); key != "" {
		return key
	}
	for _, name := range []string{EnvGeminiAPIKey, EnvOpenAIAPIKey} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return ""
}
