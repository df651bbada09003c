// Package imgdex embeds the imgdex image search engine in a Go program.
//
// The client talks to the catalog directly (Redis with the search module,
// or PostgreSQL) and runs the same multi-strategy search, scoring and
// enrichment pipeline as the HTTP API.
//
//	client, _ := imgdex.New(ctx, imgdex.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	_ = client.Images().Prepare(ctx)
//	_ = client.Images().Import(ctx, images)
//
//	resp, _ := client.Search(ctx, imgdex.Query{Text: "sunset beach", Color: "orange"})
//	for _, r := range resp.Results {
//	    fmt.Println(r.Image.ID, r.Score, r.Level)
//	}
//
// Similar images and AI descriptions:
//
//	resp, _ = client.Similar(ctx, "beach-sunset", 20)
//	md, generated, _ := client.Describe(ctx, "beach-sunset", false)
package imgdex
