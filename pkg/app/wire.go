package app

import (
	"github.com/google/wire"
)

// AppComponents 收集 Wire 注入的组件
type AppComponents struct {
	Servers []Server
	Closers []Closer
}

// ProviderSet 导出给 Wire 使用
var ProviderSet = wire.NewSet(
	NewBaseApp,
)

// InitApp 将 Wire 注入的组件绑定到 BaseApp
func InitApp(app *BaseApp, comps AppComponents) Application {
	app.AppendServer(comps.Servers...)
	app.AppendCloser(comps.Closers...)
	return app
}

// MapCloser 将实现了 Close() error 的对象转换为 Closer
func MapCloser(c interface{ Close() error }) Closer {
	return closerFunc(c.Close)
}

// CloserFunc 将函数适配为 Closer
func CloserFunc(fn func() error) Closer {
	return closerFunc(fn)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
