package handler

import "golang.org/x/text/language"

// Supported response languages. Swedish first: it is both the matcher
// fallback and the product's primary audience.
var messageMatcher = language.NewMatcher([]language.Tag{
	language.Swedish,
	language.English,
})

var exhaustedMessages = []string{
	"Du har använt alla dina krediter för idag. Kom tillbaka imorgon eller uppgradera din plan.",
	"You have used all of your credits for today. Come back tomorrow or upgrade your plan.",
}

// exhaustedMessage picks the quota-exhausted message for the request's
// Accept-Language header. Unparseable or absent headers get Swedish.
func exhaustedMessage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return exhaustedMessages[0]
	}
	_, index, _ := messageMatcher.Match(tags...)
	return exhaustedMessages[index]
}
