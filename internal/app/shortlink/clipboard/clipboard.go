// Package clipboard 把文本写入剪贴板：优先系统剪贴板，不可用时退回 OSC 52 终端转义序列。
package clipboard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
)

var ErrUnavailable = errors.New("clipboard unavailable")

// Error 表示两种方式都没能复制成功。对用户只是一个提示，不影响其它功能。
type Error struct {
	Primary  error
	Fallback error
}

func (e *Error) Error() string {
	if e.Fallback == nil {
		return fmt.Sprintf("failed to copy to clipboard: %v", e.Primary)
	}
	return fmt.Sprintf("failed to copy to clipboard: %v; fallback: %v", e.Primary, e.Fallback)
}

func (e *Error) Unwrap() []error { return []error{e.Primary, e.Fallback} }

type Copier struct {
	primary  func(string) error
	fallback func(string) error // 可为 nil
}

// New 使用系统剪贴板；term 非空时把 OSC 52 写到 term 作为降级方案（只尝试一次）。
func New(term io.Writer) *Copier {
	c := &Copier{primary: systemCopy}
	if term != nil {
		c.fallback = func(text string) error { return writeOSC52(term, text) }
	}
	return c
}

// Copy 不重试：系统剪贴板失败后降级一次，再失败就返回 *Error。
func (c *Copier) Copy(text string) error {
	perr := c.primary(text)
	if perr == nil {
		return nil
	}
	if c.fallback == nil {
		return &Error{Primary: perr}
	}
	if ferr := c.fallback(text); ferr != nil {
		return &Error{Primary: perr, Fallback: ferr}
	}
	return nil
}

func systemCopy(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboard.WriteAll(text)
}

// writeOSC52 让终端（包括 ssh 远端、tmux）替我们写剪贴板。
func writeOSC52(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, "\x1b]52;c;%s\a", base64.StdEncoding.EncodeToString([]byte(text)))
	return err
}
