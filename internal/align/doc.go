// Package align re-anchors model-proposed chapters onto word timestamps.
//
// Each raw chapter is resolved in model order. A quote is searched for in the
// case-folded transcript text, preferring whole-word occurrences that follow
// the previous chapter's match, so repeated phrases resolve chronologically.
// When the quote is missing or absent from the transcript, the fractional
// position is used, snapped to the next word start. Timestamps are then made
// strictly increasing by advancing to later words, and the first resolved
// chapter is pinned to zero.
//
// A chapter that cannot be placed is dropped and reported with an error
// marked services.ErrAlignment; nothing is fabricated. Align is pure.
package align
