package botapi

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys are the English texts; other languages translate them.
const (
	msgWelcome        = "Hi! Send /youtube, /instagram or /tiktok followed by a link and I will fetch the video for you."
	msgHelp           = "Commands:\n/youtube <link> - YouTube video\n/instagram <link> - Instagram post or reel\n/tiktok <link> - TikTok video\n/stats - usage statistics\nVideos larger than %d MB cannot be sent."
	msgChooseQuality  = "Choose a quality:"
	msgInvalidURL     = "That link does not look valid. Check it and try again."
	msgQueueFull      = "Too many downloads are running right now. Please try again in a few minutes."
	msgRateLimited    = "You have sent too many requests. Wait a minute and try again."
	msgFileTooLarge   = "The video is larger than %d MB and cannot be sent."
	msgDownloadFailed = "Sorry, I could not download that video. Check the link and try again."
	msgUnknownCommand = "Unknown command. Send /help to see what I can do."
	msgStats          = "Total downloads: %d\nUsers: %d"
	msgUnauthorized   = "unauthorized"
)

var supportedLanguages = []language.Tag{language.English, language.BrazilianPortuguese}

var portuguese = map[string]string{
	msgWelcome:        "Olá! Envie /youtube, /instagram ou /tiktok seguido de um link e eu baixo o vídeo para você.",
	msgHelp:           "Comandos:\n/youtube <link> - vídeo do YouTube\n/instagram <link> - post ou reel do Instagram\n/tiktok <link> - vídeo do TikTok\n/stats - estatísticas de uso\nVídeos maiores que %d MB não podem ser enviados.",
	msgChooseQuality:  "Escolha a qualidade:",
	msgInvalidURL:     "Esse link não parece válido. Confira e tente novamente.",
	msgQueueFull:      "Há muitos downloads em andamento. Tente novamente em alguns minutos.",
	msgRateLimited:    "Você enviou muitas solicitações. Aguarde um minuto e tente novamente.",
	msgFileTooLarge:   "O vídeo é maior que %d MB e não pode ser enviado.",
	msgDownloadFailed: "Desculpe, não consegui baixar esse vídeo. Confira o link e tente novamente.",
	msgUnknownCommand: "Comando desconhecido. Envie /help para ver o que posso fazer.",
	msgStats:          "Total de downloads: %d\nUsuários: %d",
	msgUnauthorized:   "não autorizado",
}

// localizer picks a printer for a language preference.
type localizer struct {
	catalog  *catalog.Builder
	matcher  language.Matcher
	fallback language.Tag
}

func newLocalizer(fallback string) (*localizer, error) {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range portuguese {
		if err := builder.SetString(language.BrazilianPortuguese, key, text); err != nil {
			return nil, err
		}
	}
	l := &localizer{
		catalog:  builder,
		matcher:  language.NewMatcher(supportedLanguages),
		fallback: language.English,
	}
	if fallback != "" {
		if _, err := language.Parse(fallback); err != nil {
			return nil, err
		}
		l.fallback = l.match(fallback)
	}
	return l, nil
}

func (l *localizer) match(pref string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return l.fallback
	}
	_, index, confidence := l.matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(supportedLanguages) {
		return l.fallback
	}
	return supportedLanguages[index]
}

// printer returns a printer for pref (a language tag or an Accept-Language
// value), or for the configured language when pref is empty or unsupported.
func (l *localizer) printer(pref string) *message.Printer {
	tag := l.fallback
	if pref != "" {
		tag = l.match(pref)
	}
	return message.NewPrinter(tag, message.Catalog(l.catalog))
}
