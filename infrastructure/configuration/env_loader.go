package configuration

import "github.com/joho/godotenv"

// LoadEnvFromFile loads KEY=VALUE pairs from the given files when they exist. Variables already set in
// the environment are left alone.
func LoadEnvFromFile(paths ...string) {
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}
