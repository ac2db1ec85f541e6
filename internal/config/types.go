package config

// FileConfig 描述一个同步目标：远端 URL 与本地落盘路径。URL 同时作为 ETag 表的键。
type FileConfig struct {
	URL  string `mapstructure:"url"`
	Path string `mapstructure:"path"`
}

// Config 是 YAML 文件映射的整体结构，启动时加载一次，运行期间只读。
type Config struct {
	Interval          Duration `mapstructure:"interval"`
	CreateDirectories bool     `mapstructure:"create_directories"`
	LogLevel          string   `mapstructure:"log_level"`
	LogFormat         string   `mapstructure:"log_format"`
	LogColor          bool     `mapstructure:"log_color"`
	LogFilePath       string   `mapstructure:"log_file_path"`
	LogMaxSize        int      `mapstructure:"log_max_size"`
	LogMaxBackups     int      `mapstructure:"log_max_backups"`
	LogCompress       bool     `mapstructure:"log_compress"`
	RequestTimeout    Duration `mapstructure:"request_timeout"`
	UserAgent         string   `mapstructure:"user_agent"`
	Concurrency       int      `mapstructure:"concurrency"`
	StatusListenPort  int      `mapstructure:"status_listen_port"`

	Files []FileConfig `mapstructure:"files"`
}

// StatusEnabled 表示是否需要启动 /-/status 诊断服务。
func (c *Config) StatusEnabled() bool {
	return c != nil && c.StatusListenPort > 0
}

// DuplicateURLs 返回在 files 中出现多次的 URL（按首次出现顺序），
// 这些条目会共享同一个 ETag 记录。
func (c *Config) DuplicateURLs() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]int, len(c.Files))
	var dups []string
	for _, file := range c.Files {
		seen[file.URL]++
		if seen[file.URL] == 2 {
			dups = append(dups, file.URL)
		}
	}
	return dups
}
