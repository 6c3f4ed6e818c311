package config

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// MergeConfig 把 src 中的非零值覆盖到 dst 上并返回 dst。
// 结构体逐字段合并，map 按键合并，切片整体替换；任一方为 nil 时返回另一方。
func MergeConfig[T any](dst, src *T) (*T, error) {
	switch {
	case dst == nil && src == nil:
		return nil, errors.Wrap(ErrNilConfig, "merge")
	case dst == nil:
		return src, nil
	case src == nil:
		return dst, nil
	}
	if err := overlay(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem(), ""); err != nil {
		return nil, err
	}
	return dst, nil
}

func overlay(dst, src reflect.Value, path string) error {
	if !src.IsValid() || empty(src) {
		return nil
	}
	if dst.Kind() != src.Kind() {
		return errors.Newf("merge %s: kind mismatch %s vs %s", path, dst.Kind(), src.Kind())
	}

	switch dst.Kind() {
	case reflect.Struct:
		t := src.Type()
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			if err := overlay(dst.Field(i), src.Field(i), path+"."+f.Name); err != nil {
				return err
			}
		}
	case reflect.Map:
		if dst.IsNil() {
			dst.Set(reflect.MakeMapWithSize(dst.Type(), src.Len()))
		}
		iter := src.MapRange()
		for iter.Next() {
			cur := dst.MapIndex(iter.Key())
			if !cur.IsValid() {
				dst.SetMapIndex(iter.Key(), iter.Value())
				continue
			}
			// map 元素不可寻址，复制一份合并后写回
			tmp := reflect.New(dst.Type().Elem()).Elem()
			tmp.Set(cur)
			if err := overlay(tmp, iter.Value(), path+"[]"); err != nil {
				return err
			}
			dst.SetMapIndex(iter.Key(), tmp)
		}
	case reflect.Pointer:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return overlay(dst.Elem(), src.Elem(), path)
	default:
		if dst.CanSet() {
			dst.Set(src)
		}
	}
	return nil
}

// empty 零值不参与覆盖；空切片与空 map 也视为未设置
func empty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
