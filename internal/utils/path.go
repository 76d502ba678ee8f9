package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

const appDirName = "substitus"

// PathResolver locates config and data files for the substitus binary
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver determines the executable, home and config locations
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = resolved
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		homeDir:       homeDir,
		configDir:     configDirFor(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", pr.executableDir, pr.configDir)
	return pr, nil
}

// configDirFor returns the platform config directory
func configDirFor(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, appDirName)
		}
		return filepath.Join(homeDir, ".config", appDirName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appDirName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", appDirName)
	case "darwin":
		return filepath.Join(homeDir, ".config", appDirName)
	default:
		return filepath.Join(homeDir, "."+appDirName)
	}
}

// GetConfigDir returns the config directory
func (pr *PathResolver) GetConfigDir() string {
	return pr.configDir
}

// GetConfigPath returns a writable location for filename, falling back to
// the home directory and the temp directory
func (pr *PathResolver) GetConfigPath(filename string) string {
	for _, dir := range []string{
		pr.configDir,
		filepath.Join(pr.homeDir, "."+appDirName),
		filepath.Join(os.TempDir(), appDirName),
	} {
		if st := CheckDirStatus(dir); st.Exists && st.Writable {
			if dir != pr.configDir {
				log.Warnf("Using fallback config location: %s", dir)
			}
			return filepath.Join(dir, filename)
		}
	}
	return filepath.Join(os.TempDir(), filename)
}

// ResolveDataPath finds a frequency list, snapshot or data directory. Relative
// paths are tried against the working directory, the executable directory and
// the config directory, in that order.
func (pr *PathResolver) ResolveDataPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		if FileExists(p) {
			return p, nil
		}
		return "", os.ErrNotExist
	}
	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, p))
	}
	candidates = append(candidates,
		filepath.Join(pr.executableDir, p),
		filepath.Join(pr.configDir, p),
	)
	for _, c := range candidates {
		if FileExists(c) {
			log.Debugf("Resolved data path %s to %s", p, c)
			return c, nil
		}
		log.Debugf("Data path candidate not found: %s", c)
	}
	return "", os.ErrNotExist
}

// GetRuntimeInfo returns debug information about the current runtime environment
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()
	return map[string]string{
		"executable_dir": pr.executableDir,
		"current_dir":    cwd,
		"home_dir":       pr.homeDir,
		"config_dir":     pr.configDir,
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
	}
}
