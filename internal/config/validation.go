package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var supportedLogLevels = map[string]struct{}{
	"error": {},
	"warn":  {},
	"info":  {},
	"debug": {},
	"trace": {},
}

const supportedLogLevelList = "error|warn|info|debug|trace"

// Validate 针对语义级别做进一步校验，防止非法配置启动同步循环。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	if c.Interval.DurationValue() <= 0 {
		return newFieldError("interval", "必须大于 0")
	}
	if _, ok := supportedLogLevels[c.LogLevel]; !ok {
		return newFieldError("log_level", "仅支持 "+supportedLogLevelList)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return newFieldError("log_format", "仅支持 text|json")
	}
	if c.LogFilePath != "" && c.LogMaxSize <= 0 {
		return newFieldError("log_max_size", "必须大于 0")
	}
	if c.LogMaxBackups < 0 {
		return newFieldError("log_max_backups", "不能为负数")
	}
	if c.RequestTimeout.DurationValue() <= 0 {
		return newFieldError("request_timeout", "必须大于 0")
	}
	if c.Concurrency < 1 {
		return newFieldError("concurrency", "必须大于等于 1")
	}
	if c.StatusListenPort < 0 || c.StatusListenPort > 65535 {
		return newFieldError("status_listen_port", "必须在 0-65535")
	}

	if len(c.Files) == 0 {
		return errors.New("至少需要配置一个 files 条目")
	}

	for i, file := range c.Files {
		if err := validateURL(file.URL); err != nil {
			return fmt.Errorf("%s: %w", fileField(i, "url"), err)
		}
		if file.Path == "" {
			return newFieldError(fileField(i, "path"), "不能为空")
		}
		if strings.HasSuffix(file.Path, "/") {
			return newFieldError(fileField(i, "path"), "必须指向文件而不是目录")
		}
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return errors.New("不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("无效 URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https 协议: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("缺少主机名: %s", raw)
	}
	return nil
}
