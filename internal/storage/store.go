package storage

import (
	"context"
	"errors"
	"time"
)

// Store 负责读取与落盘同步目标。路径即用户在 files[].path 中配置的本地路径。
type Store interface {
	// Read 返回 path 当前内容。若文件不存在则返回 ErrNotFound。
	Read(ctx context.Context, path string) ([]byte, error)

	// EnsureDir 创建 path 的父目录；目录已存在时视为成功。
	EnsureDir(path string) error

	// Write 以临时文件 + rename 的方式整体替换 path 内容，失败时清理临时文件。
	Write(ctx context.Context, path string, body []byte) (*Entry, error)
}

// Entry 描述一次成功落盘后的文件信息。
type Entry struct {
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ErrNotFound 表示本地文件不存在。
var ErrNotFound = errors.New("local file not found")
