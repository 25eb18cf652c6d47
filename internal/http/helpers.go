package http

import (
	"errors"
	"html/template"
	"net/url"
	"strings"

	"bodekasse/internal/auth"
	"bodekasse/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}

// templateFuncs are available to every page and partial.
func templateFuncs(currency string) template.FuncMap {
	return template.FuncMap{
		"money": func(amount int64) string {
			return core.FormatAmount(amount, currency)
		},
		"date": func(d core.Date) string {
			return d.String()
		},
		// withToken appends the admin token to an internal link. Links
		// without a token stay untouched so public pages share clean URLs.
		"withToken": func(path, token string) string {
			if token == "" {
				return path
			}
			sep := "?"
			if strings.Contains(path, "?") {
				sep = "&"
			}
			return path + sep + auth.TokenParam + "=" + url.QueryEscape(token)
		},
	}
}

// warningMessage is the text shown to the actor for a rejected input.
func warningMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyName):
		return "Navnet må ikke være tomt."
	case errors.Is(err, core.ErrDuplicateMember):
		return "Spiller er allerede i klubben."
	case errors.Is(err, core.ErrUnknownMember):
		return "Ukendt spiller."
	case errors.Is(err, core.ErrUnknownFineType):
		return "Ukendt bøde."
	default:
		return "Ugyldigt input."
	}
}
