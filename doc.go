// Package gemini is a client library for the Google Gemini generative AI
// HTTP API (generativelanguage.googleapis.com).
//
// The package covers text generation (including streaming and function
// calling), embeddings, long-running batch jobs, file uploads, and content
// caching. Requests are assembled with fluent builders and executed against
// the vendor's JSON-over-HTTPS wire format; the API key is passed as the
// `key` query parameter on every request.
//
// Basic usage:
//
//	client := gemini.New(os.Getenv("GEMINI_API_KEY"))
//	resp, err := client.GenerateContent().
//		System("You are a helpful assistant.").
//		User("Why is the sky blue?").
//		Generate(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(resp.Text())
//
// Long-running batch jobs are represented by the Batch handle, whose
// destructive operations (Cancel, Delete, WaitForCompletion on a terminal
// outcome) consume the handle: once an operation succeeds the handle is
// spent and further calls fail fast with ErrBatchConsumed. When an
// operation fails the handle stays valid so the same call can simply be
// retried.
package gemini
