package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// LoadDotEnvFile - loads variables from .env file in working directory (if there is any)
func LoadDotEnvFile() {
	absFilepath, filePathErr := filepath.Abs(".env")
	if filePathErr != nil {
		log.Fatal().Str("path", absFilepath).Err(filePathErr).Msg("Unable to retrieve absolute file path")
	}

	// loads values from .env into the system
	if err := godotenv.Load(absFilepath); err != nil {
		log.Info().Str("path", absFilepath).Msg("No .env file found. Using only environment variables")
	} else {
		log.Info().Str("path", absFilepath).Msg("Additional environment variables loaded from .env file")
	}
}

// EnvVarStr - returns value of environment variable or default value if it is not set
func EnvVarStr(varName string, defaultValue string) string {
	value := os.Getenv(varName)

	if value == "" {
		return defaultValue
	}

	return value
}

// EnvVarBool - parses boolean environment variable (allowed values true, false)
func EnvVarBool(varName string, defaultValue bool) (bool, error) {
	value := EnvVarStr(varName, "")
	if value == "true" {
		return true, nil
	} else if value == "false" {
		return false, nil
	} else if value == "" {
		return defaultValue, nil
	}

	return false, fmt.Errorf("unexpected value for boolean environment variable %v (allowed values true, false)", varName)
}

// EnvVarDuration - parses duration environment variable (eg. 30s, 2m)
func EnvVarDuration(varName string, defaultValue time.Duration) (time.Duration, error) {
	value := EnvVarStr(varName, "")
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("unexpected value for duration environment variable %v: %w", varName, err)
	}

	return d, nil
}

// EnvVarList - splits comma separated environment variable, empty items are skipped
func EnvVarList(varName string, defaultValue []string) []string {
	value := EnvVarStr(varName, "")
	if value == "" {
		return defaultValue
	}

	result := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}

	return result
}
