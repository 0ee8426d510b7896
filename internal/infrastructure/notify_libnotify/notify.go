package notify_libnotify

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const appName = "ci-pulse"

// Notifier shells out to notify-send. A soft notifier swallows failures, which
// is what you want on machines without a notification daemon.
type Notifier struct {
	soft bool
	bin  string
	opt  Options
}

func New() *Notifier { return &Notifier{bin: "notify-send"} }

func NewSoft() *Notifier { return &Notifier{soft: true, bin: "notify-send"} }

type Options struct {
	Urgency string
	Expire  time.Duration
}

// WithDefaults sets the options used by Notify.
func (n *Notifier) WithDefaults(opt Options) *Notifier {
	n.opt = opt
	return n
}

func (n *Notifier) Notify(ctx context.Context, title, body, url string) error {
	return n.NotifyWith(ctx, title, body, url, n.opt)
}

func (n *Notifier) NotifyWith(ctx context.Context, title, body, url string, opt Options) error {
	cmd := exec.CommandContext(ctx, n.bin, args(title, body, url, opt)...)
	if err := cmd.Run(); err != nil {
		if n.soft {
			return nil
		}
		return err
	}
	return nil
}

func args(title, body, url string, opt Options) []string {
	if strings.TrimSpace(url) != "" {
		if body == "" {
			body = url
		} else {
			body = body + "\n" + url
		}
	}

	out := []string{"--app-name=" + appName}
	if opt.Urgency != "" {
		out = append(out, "--urgency="+opt.Urgency)
	}
	if opt.Expire > 0 {
		out = append(out, "--expire-time="+strconv.Itoa(int(opt.Expire/time.Millisecond)))
	}
	return append(out, title, body)
}
