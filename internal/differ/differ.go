// Package differ decides whether fetched content differs from what is on disk
// and measures the change as line additions and removals.
package differ

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Result 是一次比较的结论。Changed 以字节为准，Additions/Removals 为行级统计。
type Result struct {
	Changed   bool `json:"changed"`
	Additions int  `json:"additions"`
	Removals  int  `json:"removals"`
}

// Differ 封装行级 diff 算法。零超时保证相同输入总是得到相同统计。
type Differ struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// New 创建 Differ。
func New() *Differ {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Differ{dmp: dmp}
}

// Compare 比较 previous（磁盘内容，缺失时为空串）与 current（新抓取内容）。
func (d *Differ) Compare(previous, current string) Result {
	if previous == current {
		return Result{}
	}

	chars1, chars2, lines := d.dmp.DiffLinesToChars(previous, current)
	diffs := d.dmp.DiffMain(chars1, chars2, false)
	diffs = d.dmp.DiffCharsToLines(diffs, lines)

	result := Result{Changed: true}
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			result.Additions += countLines(diff.Text)
		case diffmatchpatch.DiffDelete:
			result.Removals += countLines(diff.Text)
		}
	}
	return result
}

// countLines 统计文本行数，末尾缺少换行的最后一行也计为一行。
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
