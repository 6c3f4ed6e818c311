package config

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// StringToInt64SliceHookFunc 将 "1, 2,3" 形式的字符串解析为 []int64，空白项会被忽略
func StringToInt64SliceHookFunc(sep string) mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf([]int64{}) {
			return data, nil
		}
		raw := data.(string)
		out := make([]int64, 0)
		for _, part := range strings.Split(raw, sep) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}
}

// ParseBool 解析环境变量风格的布尔值，"1"、"true"、"yes" 为真（忽略大小写）
func ParseBool(raw string, fallback bool) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
