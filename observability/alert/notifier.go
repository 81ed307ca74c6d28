package alert

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/discord"
	"github.com/nikoksr/notify/service/telegram"
)

const maxDetailLength = 1000

type notifier interface {
	notify(ctx context.Context, e errorInfo) error
}

func newNotifier(cfg Config) (notifier, error) {
	env := os.Getenv("ENVIRONMENT")

	switch cfg.Provider {
	case providerDiscord:
		d := discord.New()
		if err := d.AuthenticateWithBotToken(cfg.DiscordBotToken); err != nil {
			return nil, errx.Wrap(err)
		}
		d.AddReceivers(cfg.DiscordChannelIDs...)
		return newServiceNotifier(d, "**❗ Queue Alert**\n", env, getDiscordFormats()), nil

	case providerTelegram:
		tg, err := telegram.New(cfg.TelegramBotToken)
		if err != nil {
			return nil, errx.Wrap(err)
		}
		tg.AddReceivers(cfg.TelegramChatIDs...)
		return newServiceNotifier(tg, "<b>❗ Queue Alert</b>\n", env, getTelegramFormats()), nil

	default:
		return nil, errx.New("[alert]: invalid alert provider: "+cfg.Provider,
			errx.WithType(errx.T_Validation))
	}
}

// serviceNotifier sends formatted alerts through one notify service.
type serviceNotifier struct {
	n           notify.Notifier
	title       string
	environment string
	formats     bodyFormats
}

func newServiceNotifier(svc notify.Notifier, title, environment string, f bodyFormats) *serviceNotifier {
	n := notify.New()
	n.UseServices(svc)

	return &serviceNotifier{
		n:           n,
		title:       title,
		environment: environment,
		formats:     f,
	}
}

func (sn *serviceNotifier) notify(ctx context.Context, e errorInfo) error {
	body := buildBody(e, sn.environment, sn.formats)

	if err := sn.n.Send(ctx, sn.title, body); err != nil {
		return errx.Wrap(err)
	}

	return nil
}

// --- Message formatting ---

// bodyFormats defines format strings for building notification messages.
type bodyFormats struct {
	escape       func(string) string
	fieldFmt     string // format for header fields: takes label and value
	detailHeader string // separator before details section
	detailFmt    string // format for each detail entry: takes key and value
	freqFmt      string // format for frequency line: takes count and minutes
}

func getDiscordFormats() bodyFormats {
	return bodyFormats{
		escape:       escapeMarkdown,
		fieldFmt:     "**%s:** %s\n",
		detailHeader: "\n**📋 _Additional details_**\n",
		detailFmt:    "_%s_: ```%s```\n",
		freqFmt:      "\n**📊 Frequency:** %d in last %d minutes",
	}
}

func getTelegramFormats() bodyFormats {
	return bodyFormats{
		escape:       escapeHTML,
		fieldFmt:     "<b>%s:</b> %s\n",
		detailHeader: "\n<b>📋 <i>Additional details</i></b>\n",
		detailFmt:    "<i>%s</i>: <code>%s</code>\n",
		freqFmt:      "\n<b>📊 Frequency:</b> %d in last %d minutes",
	}
}

func buildBody(e errorInfo, environment string, f bodyFormats) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, f.fieldFmt, "🔍 Environment", f.escape(environment))
	fmt.Fprintf(&buf, f.fieldFmt, "🛠️ Service", f.escape(e.service))
	fmt.Fprintf(&buf, f.fieldFmt, "🔄 Operation", f.escape(e.operation))
	fmt.Fprintf(&buf, f.fieldFmt, "🏷️ Code", f.escape(e.code))
	fmt.Fprintf(&buf, f.fieldFmt, "💬 Message", f.escape(e.message))

	buf.WriteString(f.detailHeader)

	for _, k := range slices.Sorted(maps.Keys(e.details)) {
		v := e.details[k]
		if v == "" {
			continue
		}
		if len(v) > maxDetailLength {
			v = v[:maxDetailLength] + "..."
		}
		fmt.Fprintf(&buf, f.detailFmt, f.escape(k), f.escape(v))
	}

	if e.frequency > 0 {
		fmt.Fprintf(&buf, f.freqFmt, e.frequency, int(e.window/time.Minute))
	}

	return buf.String()
}

// --- Escape utilities ---

func escapeMarkdown(in string) string {
	replacer := strings.NewReplacer(
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
		"~", "\\~",
		"|", "\\|",
	)
	return replacer.Replace(replaceNewlines(in))
}

func escapeHTML(in string) string {
	return html.EscapeString(replaceNewlines(in))
}

func replaceNewlines(in string) string {
	return strings.ReplaceAll(in, "\n", "\\n")
}
