package ratelimit

// MessageCatalog holds the client-facing rejection messages per locale and
// traffic class. Messages carry no request details; the retry hint and
// reference ID travel in their own response fields.
type MessageCatalog struct {
	limited map[string]map[string]string
	blocked map[string]string
	deflt   string
}

// DefaultLocale is used when a request carries no locale or an unknown one.
const DefaultLocale = "en"

// DefaultCatalog returns the built-in English and German messages.
func DefaultCatalog() *MessageCatalog {
	return &MessageCatalog{
		limited: map[string]map[string]string{
			"en": {
				PresetBrowsing:    "You are browsing faster than we can keep up. Please slow down a little.",
				PresetOrder:       "Too many order requests in a short time. Please wait a moment before retrying your checkout.",
				PresetContact:     "Too many contact form submissions. Please wait before sending another message.",
				PresetImage:       "Too many image requests. Please slow down.",
				PresetBlogAPI:     "Too many blog requests. Please try again shortly.",
				PresetTemplateAPI: "Too many catalog requests. Please try again shortly.",
				PresetPolling:     "Status updates are limited. Please reduce the polling frequency.",
			},
			"de": {
				PresetBrowsing:    "Sie sind schneller unterwegs, als wir liefern können. Bitte etwas langsamer.",
				PresetOrder:       "Zu viele Bestellanfragen in kurzer Zeit. Bitte warten Sie einen Moment, bevor Sie es erneut versuchen.",
				PresetContact:     "Zu viele Kontaktanfragen. Bitte warten Sie, bevor Sie eine weitere Nachricht senden.",
				PresetImage:       "Zu viele Bildanfragen. Bitte etwas langsamer.",
				PresetBlogAPI:     "Zu viele Blog-Anfragen. Bitte versuchen Sie es gleich noch einmal.",
				PresetTemplateAPI: "Zu viele Katalog-Anfragen. Bitte versuchen Sie es gleich noch einmal.",
				PresetPolling:     "Statusabfragen sind begrenzt. Bitte reduzieren Sie die Abfragefrequenz.",
			},
		},
		blocked: map[string]string{
			"en": "Your access is temporarily suspended because of unusual traffic from your connection. Please try again later.",
			"de": "Ihr Zugriff ist wegen ungewöhnlichen Datenverkehrs vorübergehend gesperrt. Bitte versuchen Sie es später erneut.",
		},
		deflt: "Too many requests. Please try again later.",
	}
}

// Limited returns the rejection message for a preset and locale.
func (c *MessageCatalog) Limited(preset, locale string) string {
	if c == nil {
		return ""
	}
	byClass, ok := c.limited[locale]
	if !ok {
		byClass = c.limited[DefaultLocale]
	}
	if msg, ok := byClass[preset]; ok {
		return msg
	}
	if msg, ok := c.limited[DefaultLocale][preset]; ok {
		return msg
	}
	return c.deflt
}

// Blocked returns the block message for a locale.
func (c *MessageCatalog) Blocked(locale string) string {
	if c == nil {
		return ""
	}
	if msg, ok := c.blocked[locale]; ok {
		return msg
	}
	return c.blocked[DefaultLocale]
}
