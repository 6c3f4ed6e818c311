package app

import (
	"fmt"
	"runtime"
)

// 构建时注入：
//
//	go build -ldflags "-X github.com/lk2023060901/cardforge/pkg/app.Version=v0.3.0 -X github.com/lk2023060901/cardforge/pkg/app.GitCommit=$(git rev-parse --short HEAD)"
var (
	AppName   = "cardforge"
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info 构建信息
type Info struct {
	AppName   string `json:"app_name"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo 返回当前二进制的构建信息
func GetInfo() Info {
	return Info{
		AppName:   AppName,
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("%s %s commit=%s built=%s %s %s",
		i.AppName, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}
