package service

import (
	"strings"
	"unicode"

	"companion-llm/internal/domain"
)

// Clasificador de intencion: lista de reglas con precedencia fija y testeable.
// Orden: NumericAnswer -> LowInformation -> TopicRequest -> DataQuery -> FreeChat.
// Un "3" literal es respuesta numerica, nunca low-information.

var topicRequestPhrases = []string{
	"do you have something to talk about",
	"got something to talk about",
	"any topic for me",
	"give me a topic",
	"what should we talk about",
	"talk about something",
}

var dataQueryPhrases = []string{
	"what do i have scheduled today",
	"what do i have scheduled tomorrow",
	"what do i have today",
	"what do i have tomorrow",
	"what is on my schedule today",
	"what is on my schedule tomorrow",
	"what's on my schedule today",
	"what's on my schedule tomorrow",
}

// Alfabeto tipo vocal: relleno vago comun ("aaaa", "uuh", "ｳｳｳ").
var vowelLikeAlphabet = map[rune]struct{}{
	'a': {}, 'e': {}, 'i': {}, 'o': {}, 'u': {},
	'h': {}, 'm': {}, 'w': {}, 'y': {},
	'あ': {}, 'い': {}, 'う': {}, 'え': {}, 'お': {}, 'ー': {},
	'ア': {}, 'イ': {}, 'ウ': {}, 'エ': {}, 'オ': {},
	'ｱ': {}, 'ｲ': {}, 'ｳ': {}, 'ｴ': {}, 'ｵ': {},
}

// ClassifyIntent clasifica un mensaje libre en exactamente una variante.
// Sin estado y sin efectos.
func ClassifyIntent(message string) (domain.Intent, int) {
	trimmed := strings.TrimSpace(message)

	if v, ok := numericAnswer(trimmed); ok {
		return domain.IntentNumericAnswer, v
	}
	if isLowInformation(trimmed) {
		return domain.IntentLowInformation, 0
	}

	normalized := strings.ToLower(trimmed)
	for _, phrase := range topicRequestPhrases {
		if strings.Contains(normalized, phrase) {
			return domain.IntentTopicRequest, 0
		}
	}
	for _, phrase := range dataQueryPhrases {
		if strings.Contains(normalized, phrase) {
			return domain.IntentDataQuery, 0
		}
	}
	return domain.IntentFreeChat, 0
}

// numericAnswer acepta exactamente un digito 1-5.
func numericAnswer(trimmed string) (int, bool) {
	if len(trimmed) != 1 {
		return 0, false
	}
	ch := trimmed[0]
	if ch < '1' || ch > '5' {
		return 0, false
	}
	return int(ch - '0'), true
}

// isLowInformation detecta input sin contenido util:
// largo < 3, un solo caracter repetido, solo puntuacion/espacios, o hasta 5
// runas todas del alfabeto tipo vocal.
func isLowInformation(trimmed string) bool {
	runes := []rune(trimmed)
	if len(runes) < 3 {
		return true
	}

	repeated := true
	for _, r := range runes[1:] {
		if r != runes[0] {
			repeated = false
			break
		}
	}
	if repeated {
		return true
	}

	onlyPunct := true
	for _, r := range runes {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			onlyPunct = false
			break
		}
	}
	if onlyPunct {
		return true
	}

	if len(runes) <= 5 {
		allVowelLike := true
		for _, r := range runes {
			if _, ok := vowelLikeAlphabet[unicode.ToLower(r)]; !ok {
				allVowelLike = false
				break
			}
		}
		if allVowelLike {
			return true
		}
	}

	return false
}
