// Package cliapi 是短链命令行的传输层：解析子命令和参数，调用 internal/app/shortlink，
// 把结果格式化输出。领域逻辑不放在这里。
package cliapi

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"shortlink.local/internal/app/shortlink"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

var ErrExpired = errors.New("link has expired")

// Copier 写剪贴板，见 clipboard.Copier。
type Copier interface {
	Copy(text string) error
}

// App 持有各子命令需要的依赖。cmd/shortlink 负责组装。
type App struct {
	Session *shortlink.Session
	Stats   *shortlink.StatsLookup // 可为 nil
	Copier  Copier                 // 可为 nil
	// Migrate 只在 postgres 存储下设置
	Migrate func(ctx context.Context) ([]string, error)

	Out io.Writer
	Err io.Writer
	Now func() time.Time
	// WatchInterval 是 history -watch 的刷新间隔，默认 1s
	WatchInterval time.Duration
}

type command struct {
	name  string
	usage string
	run   func(a *App, ctx context.Context, args []string) error
}

var commands = []command{
	{"shorten", "shorten -url URL [-expire 1h|12h|1d|7d|30d|permanent] [-copy] [-qr]", (*App).cmdShorten},
	{"history", "history [-watch]", (*App).cmdHistory},
	{"copy", "copy N", (*App).cmdCopy},
	{"qr", "qr N [-out file.png] [-size px]", (*App).cmdQR},
	{"stats", "stats N", (*App).cmdStats},
	{"migrate", "migrate", (*App).cmdMigrate},
}

// usageError 表示参数不对，退出码为 2。
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

// Run 执行一条子命令并返回退出码。args 不含程序名。
func (a *App) Run(ctx context.Context, args []string) int {
	if a.Now == nil {
		a.Now = time.Now
	}
	if a.WatchInterval <= 0 {
		a.WatchInterval = time.Second
	}
	if len(args) == 0 {
		a.printUsage()
		return ExitUsage
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		err := c.run(a, ctx, args[1:])
		var ue *usageError
		switch {
		case err == nil:
			return ExitOK
		case errors.Is(err, flag.ErrHelp):
			return ExitUsage
		case errors.As(err, &ue):
			fmt.Fprintf(a.Err, "%s\nusage: shortlink %s\n", ue.msg, c.usage)
			return ExitUsage
		default:
			fmt.Fprintln(a.Err, errorText(err))
			return ExitError
		}
	}
	fmt.Fprintf(a.Err, "unknown command %q\n", args[0])
	a.printUsage()
	return ExitUsage
}

func (a *App) printUsage() {
	fmt.Fprintln(a.Err, "usage:")
	for _, c := range commands {
		fmt.Fprintf(a.Err, "  shortlink %s\n", c.usage)
	}
}

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

// errorText 把错误翻译成给用户看的一行文本。
func errorText(err error) string {
	var se *shortlink.ServiceError
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, shortlink.ErrValidation):
		return "Please enter a URL"
	case errors.As(err, &se):
		return se.Error()
	}
	return err.Error()
}
