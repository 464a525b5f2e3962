// Package gemini implements [relay.Connector] for the Gemini Live API.
//
// It wraps the google.golang.org/genai SDK. Each relay session is one Live
// websocket: the setup message carries the model configuration, a single
// client-content turn carries the message, and server content messages are
// read until the model reports its turn complete.
package gemini

const defaultAPIVersion = "v1alpha"
