// Package client provides a client library for gallerd gallery servers.
//
// It supports listing, uploading, and deleting gallery images over the
// JSON API with bearer-token authentication, and includes profile-based
// configuration for connecting to multiple servers.
//
// # Basic Usage
//
// Create a client and list the gallery:
//
//	cfg := &client.Config{
//		Endpoint: "http://localhost:5712",
//		APIKey:   "your-api-key",
//	}
//
//	c, err := client.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	images, err := c.List(ctx)
//
// # Gallery State
//
// AppState models the gallery session: a public visitor can browse, and
// logging in with the owner's credentials unlocks upload and delete.
//
//	state := client.NewAppState(c, username, password)
//	if err := state.Load(ctx); err != nil {
//		log.Fatal(err)
//	}
//	for _, month := range state.SortedMonths() {
//		fmt.Println(client.MonthName(month))
//	}
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := client.NewFormatter(jsonOutput, quiet)
//	formatter.FormatList(os.Stdout, images)
package client
