package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/edubot-backend/internal/platform/logger"
)

func lookup(name string, log *logger.Logger) (string, bool) {
	v, ok := os.LookupEnv(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		if log != nil {
			log.Debug("Environment variable not set, using default", "env_var", name)
		}
		return "", false
	}
	return v, true
}

func String(name, def string, log *logger.Logger) string {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	return v
}

func Int(name string, def int, log *logger.Logger) int {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable is not an int, using default", "env_var", name, "default", def, "error", err)
		}
		return def
	}
	return i
}

func Float(name string, def float64, log *logger.Logger) float64 {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable is not a float, using default", "env_var", name, "default", def, "error", err)
		}
		return def
	}
	return f
}

func Bool(name string, def bool, log *logger.Logger) bool {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Seconds reads an integer number of seconds.
func Seconds(name string, def time.Duration, log *logger.Logger) time.Duration {
	n := Int(name, int(def/time.Second), log)
	if n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

// List splits a comma separated value, dropping blanks.
func List(name string, def []string, log *logger.Logger) []string {
	v, ok := lookup(name, log)
	if !ok {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
