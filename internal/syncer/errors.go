package syncer

import (
	"fmt"
	"net/http"
)

// FetchError 表示单个 URL 的网络错误或非 2xx/304 状态，仅影响当前条目。
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DirectoryError 表示父目录创建失败，会终止整个周期。
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("创建目录失败 %q", e.Path)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// WriteError 表示落盘失败，会终止整个周期，避免静默丢失更新。
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("写入文件失败 %q", e.Path)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
