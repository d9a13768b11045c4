// Package llm adapts generative model backends to the script and image
// contracts in llm/client and decorates them with retries, rate limits,
// caching and logging.
package llm

import llmclient "infographify/internal/llm/client"

// ImageMiddleware decorates an ImageClient with a cross-cutting concern.
type ImageMiddleware func(llmclient.ImageClient) llmclient.ImageClient

// ScriptMiddleware decorates a ScriptClient with a cross-cutting concern.
type ScriptMiddleware func(llmclient.ScriptClient) llmclient.ScriptClient

// WrapImage applies middlewares in left-to-right order.
// Example: WrapImage(inner, A, B) => A(B(inner))
func WrapImage(inner llmclient.ImageClient, mws ...ImageMiddleware) llmclient.ImageClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// WrapScript applies middlewares in left-to-right order.
func WrapScript(inner llmclient.ScriptClient, mws ...ScriptMiddleware) llmclient.ScriptClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
