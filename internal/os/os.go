package os

import (
	"os"
	"path/filepath"
)

const appName = "kagura"

var customConfigDir string

func SetCustomConfigDir(dir string) {
	customConfigDir = dir
}

func ConfigPath() string {
	var configDir string
	if len(customConfigDir) > 0 {
		configDir = customConfigDir
	} else {
		configDir, _ = os.UserConfigDir()
	}

	return filepath.Join(configDir, appName)
}

func CachePath(name string) string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(ConfigPath(), "cache", name)
	}

	return filepath.Join(cacheDir, appName, name)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}
