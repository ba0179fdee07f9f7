// Package qr 把短链渲染成二维码（终端字符画或 PNG 文件）。
package qr

import (
	"fmt"
	"io"

	qrcode "github.com/skip2/go-qrcode"
)

// Render 用半高块字符把二维码画到终端。
func Render(text string, w io.Writer) error {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encode qr: %w", err)
	}
	_, err = io.WriteString(w, q.ToSmallString(false))
	return err
}

// WriteFile 写出 size x size 像素的 PNG。
func WriteFile(text, path string, size int) error {
	if size <= 0 {
		size = 256
	}
	if err := qrcode.WriteFile(text, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("write qr %s: %w", path, err)
	}
	return nil
}
