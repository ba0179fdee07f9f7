package shortlink

import (
	"errors"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// ErrValidation 表示在调用短链服务之前就能发现的输入问题（目前只有空 URL）。
// URL 语法交给服务端校验，这里不重复。
var ErrValidation = errors.New("url is required")
var ErrInvalidCode = errors.New("invalid code")

func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrValidation
	}
	return nil
}

var codeRe = regexp.MustCompile(`^[A-Za-z0-9]{1,32}$`)

// CodeFromShortURL 取短链最后一段路径作为短码，用于查询统计。
func CodeFromShortURL(shortURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(shortURL))
	if err != nil {
		return "", ErrInvalidCode
	}
	code := path.Base(strings.TrimRight(u.Path, "/"))
	if !codeRe.MatchString(code) {
		return "", ErrInvalidCode
	}
	return code, nil
}
