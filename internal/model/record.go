package model

// Record is a synthesized text as listed by the TTS service.
// The server owns it; the client only ever holds a read-only copy.
type Record struct {
	Id    string `json:"Id"`
	Title string `json:"Title"`
	Text  string `json:"Text"`
}

// SynthesisRequest is the body of a create call.
type SynthesisRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}
