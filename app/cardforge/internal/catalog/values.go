package catalog

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// 文档来自 encoding/json（UseNumber）或 yaml.v3，数值可能是 json.Number、int 或 float64

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		return i, err == nil
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asNonBlank(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return s, false
	}
	return s, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// sortedEntries 按键排序遍历，保证错误列表稳定
func sortedEntries(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// formatValue 错误信息中的取值展示
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// titleCase 将货币代码转换为默认显示名，如 "gold_coins" -> "Gold_Coins"
func titleCase(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		isLetter := ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
		switch {
		case isLetter && upper:
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
		case isLetter:
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
			upper = true
		}
	}
	return b.String()
}
