package cache

import (
	"sort"
	"strings"
	"sync"
)

// ETagTable 记录 URL → 最近一次成功响应携带的 ETag。条目数量等于配置的 files 数，
// 因此不做淘汰；并发抓取时由 mu 保护。
type ETagTable struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewETagTable 创建空表，进程重启后总是冷启动。
func NewETagTable() *ETagTable {
	return &ETagTable{entries: make(map[string]string)}
}

// Get 返回 url 对应的 ETag；不存在时 ok 为 false。
func (t *ETagTable) Get(url string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	etag, ok := t.entries[url]
	return etag, ok
}

// Put 覆盖 url 对应的 ETag。空值被忽略，保持原有条目不变。
func (t *ETagTable) Put(url, etag string) {
	etag = strings.TrimSpace(etag)
	if etag == "" {
		return
	}
	t.mu.Lock()
	t.entries[url] = etag
	t.mu.Unlock()
}

// Len 返回当前记录的 URL 数量。
func (t *ETagTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Entry 是 Snapshot 输出的单条记录。
type Entry struct {
	URL  string `json:"url"`
	ETag string `json:"etag"`
}

// Snapshot 按 URL 排序返回当前表的副本，供 /-/status 输出。
func (t *ETagTable) Snapshot() []Entry {
	t.mu.Lock()
	result := make([]Entry, 0, len(t.entries))
	for url, etag := range t.entries {
		result = append(result, Entry{URL: url, ETag: etag})
	}
	t.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].URL < result[j].URL
	})
	return result
}
