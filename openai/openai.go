// Package openai implements [relay.Connector] on the OpenAI Responses API.
//
// The Responses API is stateless over HTTP, so a session only lives as long
// as one streamed response: Send buffers text until the end of the turn and
// then opens the stream, Receive reads text deltas from it.
package openai
