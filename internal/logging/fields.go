package logging

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	addColor    = color.New(color.FgGreen).SprintFunc()
	removeColor = color.New(color.FgRed).SprintFunc()
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// FileFields 提供单个同步目标的 url/path 字段，供周期日志复用。
func FileFields(cycleID, url, path string) logrus.Fields {
	fields := logrus.Fields{
		"url":  url,
		"path": path,
	}
	if cycleID != "" {
		fields["cycle_id"] = cycleID
	}
	return fields
}

// DiffDelta 输出 "+N/-M" 形式的行级变更统计，启用颜色时分别着绿/红色。
func DiffDelta(additions, removals int) string {
	return fmt.Sprintf("%s/%s",
		addColor(fmt.Sprintf("+%d", additions)),
		removeColor(fmt.Sprintf("-%d", removals)),
	)
}
