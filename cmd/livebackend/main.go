// Command livebackend is a development stand-in for the dictation backend.
// It speaks the live session wire protocol: it accepts the websocket setup
// message, consumes media frames, and answers with scripted incremental
// transcription deltas and turn completions.
package main

import (
	"encoding/json"
	"flag"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"voice-dictation-service/internal/observability/logging"
)

type serverMessage struct {
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type serverContent struct {
	InputTranscription *inputTranscription `json:"inputTranscription,omitempty"`
	TurnComplete       bool                `json:"turnComplete,omitempty"`
}

type inputTranscription struct {
	Text string `json:"text"`
}

var script = [][]string{
	{"the quick ", "brown fox ", "jumps over ", "the lazy dog"},
	{"testing ", "one two three"},
	{"dictation ", "session ", "looks healthy"},
}

// framesPerDelta paces the script: one delta per this many media frames,
// roughly matching real transcription latency at the default quantum size.
const framesPerDelta = 2

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	logging.Init(logging.DefaultConfig())
	log.Logger = log.With().Str("service", "livebackend").Logger()

	http.HandleFunc("/v1/session", handleSession)

	log.Info().Str("addr", *addr).Msg("Dictation dev backend listening")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		log.Fatal().Err(err).Msg("Listen failed")
	}
}

func handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Upgrade failed")
		return
	}
	defer conn.Close()

	// First message is the session setup
	var setup map[string]any
	if err := conn.ReadJSON(&setup); err != nil {
		log.Warn().Err(err).Msg("Setup read failed")
		return
	}
	log.Info().Str("remote", r.RemoteAddr).Interface("setup", setup).Msg("Session opened")

	var (
		utterance int
		delta     int
		frames    int
	)

	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			log.Info().Err(err).Msg("Session closed")
			return
		}
		if _, ok := msg["media"]; !ok {
			continue
		}

		frames++
		if frames%framesPerDelta != 0 {
			continue
		}

		utt := script[utterance%len(script)]
		var out serverMessage
		if delta < len(utt) {
			out = serverMessage{ServerContent: &serverContent{
				InputTranscription: &inputTranscription{Text: utt[delta]},
			}}
			delta++
		} else {
			out = serverMessage{ServerContent: &serverContent{TurnComplete: true}}
			utterance++
			delta = 0
		}

		payload, _ := json.Marshal(out)
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Warn().Err(err).Msg("Write failed")
			return
		}
	}
}
