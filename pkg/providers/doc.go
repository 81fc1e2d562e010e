// Package providers groups the concrete completion clients.
//
// Each sub-package embeds [github.com/germanamz/azllm/pkg/modeladapter.ModelAdapter]
// and implements [github.com/germanamz/azllm/pkg/modeladapter.Completer]:
//   - [github.com/germanamz/azllm/pkg/providers/azure]: Azure OpenAI Completions API, one deployment per adapter
package providers
