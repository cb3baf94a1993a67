// Package caption turns image bytes into a one-word label used as the image's
// destination subfolder.
//
// The Captioner contract is deliberately narrow: a label plus an ok flag, never
// an error. Callers treat ok == false as "no caption" and route the image to
// the others folder. Client talks to an OpenAI-compatible vision endpoint via
// go-openai, downscales images before upload, and paces requests with a token
// bucket. Nop is used when captioning is disabled or no API key is present.
package caption
