package botapi

import (
	"strings"
	"testing"
)

func TestLocalizerFallsBackToConfiguredLanguage(t *testing.T) {
	l, err := newLocalizer("pt-BR")
	if err != nil {
		t.Fatalf("newLocalizer: %v", err)
	}
	if got := l.printer("").Sprintf(msgQueueFull); !strings.HasPrefix(got, "Há muitos downloads") {
		t.Fatalf("default language not applied: %q", got)
	}
	if got := l.printer("fr-FR").Sprintf(msgQueueFull); !strings.HasPrefix(got, "Há muitos downloads") {
		t.Fatalf("unsupported language should fall back: %q", got)
	}
	if got := l.printer("en-US,en;q=0.8").Sprintf(msgFileTooLarge, 50); got != "The video is larger than 50 MB and cannot be sent." {
		t.Fatalf("english message = %q", got)
	}
}

func TestLocalizerRejectsMalformedLanguage(t *testing.T) {
	if _, err := newLocalizer("not a language!"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEveryMessageIsTranslated(t *testing.T) {
	keys := []string{
		msgWelcome, msgHelp, msgChooseQuality, msgInvalidURL, msgQueueFull, msgRateLimited,
		msgFileTooLarge, msgDownloadFailed, msgUnknownCommand, msgStats, msgUnauthorized,
	}
	for _, key := range keys {
		if strings.TrimSpace(portuguese[key]) == "" {
			t.Fatalf("missing pt-BR translation for %q", key)
		}
		if strings.Count(portuguese[key], "%d") != strings.Count(key, "%d") {
			t.Fatalf("placeholder mismatch for %q", key)
		}
	}
}
