package cliapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"shortlink.local/internal/app/shortlink"
	"shortlink.local/internal/app/shortlink/qr"
)

func (a *App) cmdShorten(ctx context.Context, args []string) error {
	fs := a.newFlagSet("shorten")
	rawURL := fs.String("url", "", "long URL to shorten")
	expire := fs.String("expire", string(shortlink.Expire1h), "expiration: 1h, 12h, 1d, 7d, 30d or permanent")
	doCopy := fs.Bool("copy", false, "copy the short URL to the clipboard")
	doQR := fs.Bool("qr", false, "print a QR code for the short URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rawURL == "" && fs.NArg() > 0 {
		*rawURL = fs.Arg(0)
	}

	r, err := a.Session.Shorten(ctx, *rawURL, *expire)
	if err != nil && r.ShortURL == "" {
		return err
	}
	if err != nil {
		// 短链已生成，只是历史没保存下来
		fmt.Fprintf(a.Err, "warning: %v\n", err)
	}

	fmt.Fprintln(a.Out, r.ShortURL)
	fmt.Fprintf(a.Out, "expires: %s\n", expiryText(r, a.Now()))

	if *doCopy {
		a.copy(r.ShortURL)
	}
	if *doQR {
		if err := qr.Render(r.ShortURL, a.Out); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) cmdHistory(ctx context.Context, args []string) error {
	fs := a.newFlagSet("history")
	watch := fs.Bool("watch", false, "refresh remaining time and visits every second until interrupted")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*watch {
		a.renderHistory(ctx, a.Out, false)
		return nil
	}

	// 每次刷新都查访问量，StatsLookup 的缓存挡住大部分请求
	ticker := time.NewTicker(a.WatchInterval)
	defer ticker.Stop()
	for {
		io.WriteString(a.Out, "\x1b[H\x1b[2J")
		a.renderHistory(ctx, a.Out, a.Stats != nil)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (a *App) renderHistory(ctx context.Context, w io.Writer, withVisits bool) {
	records := a.Session.History().Records()
	if len(records) == 0 {
		fmt.Fprintln(w, "No links yet.")
		return
	}
	now := a.Now()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "#\tSHORT URL\tORIGINAL URL\tCREATED\tSTATUS"
	if withVisits {
		header += "\tVISITS"
	}
	fmt.Fprintln(tw, header)
	for i, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s",
			i+1, r.ShortURL, truncate(r.OriginalURL, 48),
			r.CreatedAt.Local().Format("2006-01-02 15:04"), shortlink.Status(r, now))
		if withVisits {
			fmt.Fprintf(tw, "\t%s", a.visits(ctx, r, now))
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}

// visits 查不到时显示 "-"；过期的链接服务端已经不再统计，不去查。
func (a *App) visits(ctx context.Context, r shortlink.LinkRecord, now time.Time) string {
	if ctx.Err() != nil || shortlink.IsExpired(r, now) {
		return "-"
	}
	st, err := a.Stats.Lookup(ctx, r)
	if err != nil {
		slog.DebugContext(ctx, "visits lookup failed", "short_url", r.ShortURL, "err", err)
		return "-"
	}
	return strconv.FormatInt(st.AccessCount, 10)
}

func (a *App) cmdCopy(ctx context.Context, args []string) error {
	r, err := a.liveRecord(args)
	if err != nil {
		return err
	}
	if a.copy(r.ShortURL) {
		fmt.Fprintf(a.Out, "copied %s\n", r.ShortURL)
	}
	return nil
}

func (a *App) cmdQR(ctx context.Context, args []string) error {
	fs := a.newFlagSet("qr")
	out := fs.String("out", "", "write a PNG file instead of printing to the terminal")
	size := fs.Int("size", 256, "PNG size in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := a.liveRecord(fs.Args())
	if err != nil {
		return err
	}
	if *out != "" {
		if err := qr.WriteFile(r.ShortURL, *out, *size); err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "wrote %s\n", *out)
		return nil
	}
	return qr.Render(r.ShortURL, a.Out)
}

func (a *App) cmdStats(ctx context.Context, args []string) error {
	if a.Stats == nil {
		return errors.New("stats lookup not configured")
	}
	r, err := a.record(args)
	if err != nil {
		return err
	}
	st, err := a.Stats.Lookup(ctx, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "short url:  %s\n", r.ShortURL)
	fmt.Fprintf(a.Out, "original:   %s\n", st.OriginalURL)
	fmt.Fprintf(a.Out, "visits:     %d\n", st.AccessCount)
	fmt.Fprintf(a.Out, "created:    %s\n", st.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(a.Out, "expires:    %s\n", expiryText(r, a.Now()))
	return nil
}

func (a *App) cmdMigrate(ctx context.Context, args []string) error {
	if a.Migrate == nil {
		return errors.New("migrate needs HISTORY_BACKEND=postgres")
	}
	applied, err := a.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if len(applied) == 0 {
		fmt.Fprintln(a.Out, "schema up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(a.Out, "applied %s\n", name)
	}
	return nil
}

// copy 复制失败只提示，不算命令失败。
func (a *App) copy(text string) bool {
	if a.Copier == nil {
		fmt.Fprintln(a.Err, "clipboard not available")
		return false
	}
	if err := a.Copier.Copy(text); err != nil {
		fmt.Fprintf(a.Err, "notice: %v\n", err)
		return false
	}
	return true
}

// record 按 1 开始的序号取历史记录。
func (a *App) record(args []string) (shortlink.LinkRecord, error) {
	if len(args) != 1 {
		return shortlink.LinkRecord{}, &usageError{msg: "expected one history number"}
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return shortlink.LinkRecord{}, &usageError{msg: fmt.Sprintf("bad history number %q", args[0])}
	}
	r, ok := a.Session.History().Get(n)
	if !ok {
		return shortlink.LinkRecord{}, fmt.Errorf("no history entry #%d", n)
	}
	return r, nil
}

// liveRecord 同 record，但过期的记录不能复制或生成二维码。
func (a *App) liveRecord(args []string) (shortlink.LinkRecord, error) {
	r, err := a.record(args)
	if err != nil {
		return r, err
	}
	if shortlink.IsExpired(r, a.Now()) {
		return shortlink.LinkRecord{}, fmt.Errorf("%s: %w", r.ShortURL, ErrExpired)
	}
	return r, nil
}

func expiryText(r shortlink.LinkRecord, now time.Time) string {
	until, ok := r.ExpiresAt()
	if !ok {
		return "never (permanent)"
	}
	return fmt.Sprintf("%s (%s)", until.Local().Format("2006-01-02 15:04:05"), shortlink.Status(r, now))
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
