// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package translate localises the simulator's user-visible messages.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("rv32i: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	SetLanguage(locales...)
}

// SetLanguage selects the best match among the given BCP 47 language names.
// Unknown names fall back to en-US.
func SetLanguage(names ...string) {
	printer = message.NewPrinter(message.MatchLanguage(names...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
