package config

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// Duration 提供更灵活的反序列化能力，兼容纯秒数、Go Duration 字符串
// 以及 "1h 30m"、"10min"、"1day" 这类人类可读写法。
type Duration time.Duration

// UnmarshalText 与 Load 的 decode hook 共用 ParseDuration。
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// String 以 Go Duration 形式输出，便于日志与 /-/status 展示。
func (d Duration) String() string {
	return time.Duration(d).String()
}

const (
	secondsPerMonth = 2_630_016  // 30.44 天
	secondsPerYear  = 31_557_600 // 365.25 天
)

var (
	durationComponent = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([A-Za-zµμ]+)`)

	// durationUnits 把长单位名归一到 str2duration 认识的短写。
	durationUnits = map[string]string{
		"ns": "ns", "nsec": "ns", "nanos": "ns",
		"us": "us", "usec": "us", "micros": "us", "µs": "us", "μs": "us",
		"ms": "ms", "msec": "ms", "millis": "ms",
		"s": "s", "sec": "s", "secs": "s", "second": "s", "seconds": "s",
		"m": "m", "min": "m", "mins": "m", "minute": "m", "minutes": "m",
		"h": "h", "hr": "h", "hrs": "h", "hour": "h", "hours": "h",
		"d": "d", "day": "d", "days": "d",
		"w": "w", "week": "w", "weeks": "w",
	}
)

// ParseDuration 解析配置中的时长：空串为 0，纯数字按秒（允许小数），
// 其余按 "<数值><单位>" 组件解析，组件之间允许空格。
func ParseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return 0, fmt.Errorf("无法解析 Duration 字段: %s", raw)
		}
		return Duration(time.Duration(seconds * float64(time.Second))), nil
	}

	normalized, err := normalizeDuration(raw)
	if err != nil {
		return 0, err
	}
	parsed, err := str2duration.ParseDuration(normalized)
	if err != nil {
		return 0, fmt.Errorf("无法解析 Duration 字段 %q: %w", raw, err)
	}
	return Duration(parsed), nil
}

func normalizeDuration(raw string) (string, error) {
	matches := durationComponent.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("无法解析 Duration 字段: %s", raw)
	}

	var b strings.Builder
	pos := 0
	for _, m := range matches {
		if strings.TrimSpace(raw[pos:m[0]]) != "" {
			return "", fmt.Errorf("无法解析 Duration 字段: %s", raw)
		}
		value, unit := raw[m[2]:m[3]], raw[m[4]:m[5]]
		pos = m[1]

		// "M" 是月，"m" 是分钟，只有这一对区分大小写。
		if seconds, ok := calendarSeconds(unit); ok {
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return "", fmt.Errorf("无法解析 Duration 字段: %s", raw)
			}
			b.WriteString(strconv.FormatFloat(n*seconds, 'f', -1, 64))
			b.WriteString("s")
			continue
		}
		short, ok := durationUnits[strings.ToLower(unit)]
		if !ok {
			return "", fmt.Errorf("未知的时间单位 %q: %s", unit, raw)
		}
		b.WriteString(value)
		b.WriteString(short)
	}
	if strings.TrimSpace(raw[pos:]) != "" {
		return "", fmt.Errorf("无法解析 Duration 字段: %s", raw)
	}
	return b.String(), nil
}

func calendarSeconds(unit string) (float64, bool) {
	switch {
	case unit == "M", strings.EqualFold(unit, "month"), strings.EqualFold(unit, "months"):
		return secondsPerMonth, true
	case strings.EqualFold(unit, "y"), strings.EqualFold(unit, "year"), strings.EqualFold(unit, "years"):
		return secondsPerYear, true
	}
	return 0, false
}
