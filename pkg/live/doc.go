// Package live abstracts the bidirectional realtime voice session.
//
// A Provider opens a Session against the remote conversational service.
// Microphone frames go out with SendAudio; everything the service sends
// back (response audio, transcription deltas, turn boundaries,
// interruptions and tool calls) arrives as a Message through the
// Callbacks passed to Connect.
//
// Providers live in the bundled subpackage and register themselves by
// name:
//
//	import _ "github.com/teslashibe/go-jarvis/pkg/live/bundled"
//
//	p, err := live.New("genai", live.Options{APIKey: key})
//	if err != nil {
//	    return err
//	}
//	sess, err := p.Connect(ctx, live.Config{
//	    Model:             "gemini-2.5-flash-native-audio-preview-09-2025",
//	    Voice:             "Charon",
//	    SystemInstruction: prompt,
//	}, live.Callbacks{
//	    OnMessage: func(m live.Message) { ... },
//	    OnError:   func(err error) { ... },
//	})
//
// Callbacks run on the provider's receive goroutine. Consumers that own
// state should hand messages off to their own loop rather than doing work
// inline.
package live
