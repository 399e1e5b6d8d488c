package live

// setupMessage is the connect payload, sent once after dialing.
type setupMessage struct {
	AudioEncodingConfig audioEncodingConfig `json:"audioEncodingConfig"`
	ResponseModalities  []string            `json:"responseModalities"`
}

type audioEncodingConfig struct {
	Transcription bool `json:"transcription"`
}

// mediaMessage carries one encoded audio frame, one per capture quantum.
type mediaMessage struct {
	Media media `json:"media"`
}

type media struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// serverMessage is the inbound envelope: a transcript delta or a
// turn-completion marker.
type serverMessage struct {
	ServerContent *serverContent `json:"serverContent"`
}

type serverContent struct {
	InputTranscription *inputTranscription `json:"inputTranscription"`
	TurnComplete       bool                `json:"turnComplete"`
}

type inputTranscription struct {
	Text string `json:"text"`
}
