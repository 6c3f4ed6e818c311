package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// LoadFunc 从文件加载并解析出 T
type LoadFunc[T any] func(path string) (*T, error)

// Watcher 文件监听器（用于热更新）。
// 每次文件写入后重新调用 load，成功则替换当前值并触发回调，失败则交给 onError。
type Watcher[T any] struct {
	path      string
	load      LoadFunc[T]
	fsw       *fsnotify.Watcher
	mu        sync.RWMutex
	current   *T
	callbacks []func(*T)
	onError   func(error)
	done      chan struct{}
	closeOnce sync.Once
}

// NewWatcher 创建文件监听器并完成首次加载
func NewWatcher[T any](path string, load LoadFunc[T], onError func(error)) (*Watcher[T], error) {
	initial, err := load(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	// 监听目录，兼容编辑器的原子替换写法
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	if onError == nil {
		onError = func(error) {}
	}

	w := &Watcher[T]{
		path:    path,
		load:    load,
		fsw:     fsw,
		current: initial,
		onError: onError,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Current 获取当前值（线程安全）
func (w *Watcher[T]) Current() *T {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange 注册变化回调
func (w *Watcher[T]) OnChange(callback func(*T)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// Close 停止监听
func (w *Watcher[T]) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher[T]) loop() {
	target := filepath.Clean(w.path)
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher[T]) reload() {
	next, err := w.load(w.path)
	if err != nil {
		w.onError(err)
		return
	}

	w.mu.Lock()
	w.current = next
	callbacks := append([]func(*T){}, w.callbacks...)
	w.mu.Unlock()

	for _, cb := range callbacks {
		cb(next)
	}
}
