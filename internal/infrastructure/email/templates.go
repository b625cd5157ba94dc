package email

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// message is one rendered transactional email.
type message struct {
	Subject string
	Text    string
	HTML    string
}

func verificationMessage(code string, ttl time.Duration) message {
	expires := humanDuration(ttl)
	return message{
		Subject: "Verify your email",
		Text:    fmt.Sprintf("Your verification code is %s\n\nThe code expires in %s.\n", code, expires),
		HTML: renderBasicHTML(
			"Verify your email",
			"Enter this code to verify your email address. It expires in "+expires+".",
			code,
			"",
		),
	}
}

func welcomeMessage(name string) message {
	greeting := "Welcome to TasteRail"
	if strings.TrimSpace(name) != "" {
		greeting = "Welcome to TasteRail, " + name
	}
	return message{
		Subject: "Welcome to TasteRail",
		Text:    greeting + "!\n\nYour email address is verified and your account is ready.\n",
		HTML: renderBasicHTML(
			greeting,
			"Your email address is verified and your account is ready.",
			"",
			"",
		),
	}
}

func passwordResetMessage(link string, ttl time.Duration) message {
	expires := humanDuration(ttl)
	return message{
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Reset your password by opening this link:\n\n%s\n\nThe link expires in %s.\n", link, expires),
		HTML: renderBasicHTML(
			"Reset your password",
			"Click the button below to reset your password. The link expires in "+expires+".",
			"Reset password",
			link,
		),
	}
}

func resetSuccessMessage() message {
	return message{
		Subject: "Password reset successful",
		Text:    "Your password has been changed. If this was not you, contact support immediately.\n",
		HTML: renderBasicHTML(
			"Password reset successful",
			"Your password has been changed. If this was not you, contact support immediately.",
			"",
			"",
		),
	}
}

// humanDuration renders whole hours or minutes in words, e.g. "1 hour" or
// "90 minutes"; anything finer falls back to Duration.String.
func humanDuration(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	switch {
	case d <= 0:
		return d.String()
	case d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int64(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

// renderBasicHTML renders a minimal inline-styled body. A non-empty link
// renders highlight as a button; otherwise highlight is shown as a code block.
func renderBasicHTML(title, intro, highlight, link string) string {
	var b strings.Builder
	b.WriteString(`<!doctype html>
<html>
  <body style="font-family:Arial,Helvetica,sans-serif; line-height:1.4;">
    <h2>` + html.EscapeString(title) + `</h2>
    <p>` + html.EscapeString(intro) + `</p>
`)
	switch {
	case link != "":
		escLink := html.EscapeString(link)
		b.WriteString(`    <p>
      <a href="` + escLink + `" style="display:inline-block; padding:10px 14px; text-decoration:none; border-radius:6px; background:#111; color:#fff;">
        ` + html.EscapeString(highlight) + `
      </a>
    </p>
    <p style="color:#555; font-size:12px;">
      If the button doesn't work, open this link:<br/>
      <a href="` + escLink + `">` + escLink + `</a>
    </p>
`)
	case highlight != "":
		b.WriteString(`    <p style="font-size:28px; letter-spacing:6px; font-weight:bold;">` + html.EscapeString(highlight) + `</p>
`)
	}
	b.WriteString(`  </body>
</html>`)
	return b.String()
}
