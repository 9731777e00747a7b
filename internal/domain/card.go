package domain

// CardContent is the raw question/answer material of a card before it
// gains scheduling state, as produced by the deck importer.
type CardContent struct {
	Question string
	Answer   string
	MediaRef string
	MediaOn  MediaSide
}
