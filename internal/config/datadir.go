package config

import (
	"os"
	"path/filepath"
)

// Environment variables naming the shared data directory, in priority order.
const (
	EnvDataDir  = "STORYPIPE_DATA_DIR"
	EnvDataPath = "STORYPIPE_DATA_PATH"

	dataDirName      = "Data"
	resourcesDirName = "resources"
)

// ResolveDataDir locates the shared data directory holding models and
// configuration. The environment wins, then locations relative to the
// executable (including an Electron resources folder), then <cwd>/Data.
// It returns "" when nothing exists.
func ResolveDataDir() string {
	for _, name := range []string{EnvDataDir, EnvDataPath} {
		value := os.Getenv(name)
		if value != "" {
			if dirExists(value) {
				return value
			}

			break
		}
	}

	exePath, err := os.Executable()
	if err == nil {
		for _, candidate := range executableCandidates(filepath.Dir(exePath)) {
			if dirExists(candidate) {
				return candidate
			}
		}
	}

	cwd, err := os.Getwd()
	if err == nil {
		candidate := filepath.Join(cwd, dataDirName)
		if dirExists(candidate) {
			return candidate
		}
	}

	return ""
}

// executableCandidates lists the data directories probed around exeDir.
func executableCandidates(exeDir string) []string {
	parent := filepath.Dir(exeDir)
	grandparent := filepath.Dir(parent)

	return []string{
		filepath.Join(exeDir, dataDirName),
		filepath.Join(parent, dataDirName),
		filepath.Join(grandparent, dataDirName),
		filepath.Join(parent, resourcesDirName, dataDirName),
		filepath.Join(grandparent, resourcesDirName, dataDirName),
	}
}

// ResolveUnder returns value unchanged when it is empty or absolute and
// joins it under base otherwise.
func ResolveUnder(base, value string) string {
	if value == "" || filepath.IsAbs(value) || base == "" {
		return value
	}

	return filepath.Join(base, value)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
