// Package parchment provides an embedded Go client for the parchment
// contract QA pipeline: document extraction, chunking, vector indexing in
// Redis, retrieval and grounded answering through an OpenAI-compatible
// provider.
//
//	client, _ := parchment.New(ctx,
//	    parchment.WithRedis("localhost:6379", ""),
//	    parchment.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	defer client.Close()
//
//	report, _ := client.Index(ctx, "lease.pdf", data)
//	answer, _ := client.Ask(ctx, "When does the lease terminate?", nil)
//	fmt.Println(answer.Text, answer.Citations)
//
// Answers carry only citations that resolve to retrieved chunks; when
// retrieval comes back empty the client refuses without calling the chat
// provider at all.
package parchment
