package config

import (
	"fmt"
	"os"
	"strings"

	"foldersort/internal/classify"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSorting()
	c.normalizeRules()
	c.normalizeArchive()
	c.normalizePublish()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("FOLDERSORT_API_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIBind = value
	}
	var err error
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeSorting() {
	c.Sorting.DefaultCategory = strings.TrimSpace(c.Sorting.DefaultCategory)
	if c.Sorting.DefaultCategory == "" {
		c.Sorting.DefaultCategory = classify.DefaultCategory
	}
	c.Sorting.UnclassifiedType = strings.TrimSpace(c.Sorting.UnclassifiedType)
	if c.Sorting.UnclassifiedType == "" {
		c.Sorting.UnclassifiedType = classify.UnclassifiedType
	}
	if c.Sorting.LockTimeoutSeconds <= 0 {
		c.Sorting.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
}

func (c *Config) normalizeRules() {
	for i := range c.Rules.Categories {
		c.Rules.Categories[i].Keyword = strings.ToLower(strings.TrimSpace(c.Rules.Categories[i].Keyword))
		c.Rules.Categories[i].Category = strings.TrimSpace(c.Rules.Categories[i].Category)
	}
	if len(c.Rules.Extensions) == 0 {
		return
	}
	normalized := make(map[string]string, len(c.Rules.Extensions))
	for ext, label := range c.Rules.Extensions {
		normalized[classify.NormalizeExtension(ext)] = strings.TrimSpace(label)
	}
	c.Rules.Extensions = normalized
}

func (c *Config) normalizeArchive() {
	if c.Archive.MaxUploadMiB <= 0 {
		c.Archive.MaxUploadMiB = defaultMaxUploadMiB
	}
	if c.Archive.MaxEntries <= 0 {
		c.Archive.MaxEntries = defaultMaxEntries
	}
	if c.Archive.MaxUncompressedMiB <= 0 {
		c.Archive.MaxUncompressedMiB = defaultMaxUncompressedMiB
	}
	if c.Archive.StaleJobHours <= 0 {
		c.Archive.StaleJobHours = defaultStaleJobHours
	}
}

func (c *Config) normalizePublish() {
	c.Publish.Endpoint = strings.TrimSpace(c.Publish.Endpoint)
	c.Publish.Bucket = strings.TrimSpace(c.Publish.Bucket)
	c.Publish.Region = strings.TrimSpace(c.Publish.Region)
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
	if c.Publish.AccessKey == "" {
		if value, ok := os.LookupEnv("FOLDERSORT_S3_ACCESS_KEY"); ok {
			c.Publish.AccessKey = strings.TrimSpace(value)
		}
	}
	if c.Publish.SecretKey == "" {
		if value, ok := os.LookupEnv("FOLDERSORT_S3_SECRET_KEY"); ok {
			c.Publish.SecretKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("FOLDERSORT_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("FOLDERSORT_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
