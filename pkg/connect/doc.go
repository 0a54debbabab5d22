// Package connect provides the primary entry point for constructing an
// Encompass API client that implements the encompass.Client interface.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/encompass-client/pkg/connect"
//	  "github.com/fivetwenty-io/encompass-client/pkg/encompass"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // With a user account the client fetches tokens on demand and retries
//	  // once with a new token when the API rejects the current one.
//	  cli, err := connect.NewWithPassword(ctx, "client-id", "api-secret", "BE11111111", "officer", "password")
//	  if err != nil { log.Fatal(err) }
//
//	  guid, err := cli.Loans().GUIDByLoanNumber(ctx, "2401000123")
//	  if err != nil { log.Fatal(err) }
//
//	  err = cli.Milestones().Update(ctx, &encompass.UpdateMilestoneOptions{
//	    LoanGUID:  guid,
//	    Milestone: "Processing",
//	    Action:    encompass.MilestoneActionFinish,
//	  })
//	  if err != nil { log.Fatal(err) }
//	}
//
// # Configuration
//
// New accepts a full encompass.Config. Base URLs without a scheme get
// https://, and trailing slashes are removed. The config passed in is copied,
// so it can be reused for other clients.
//
// # Helpers
//
// NewWithPassword and NewWithToken cover the two common ways of
// authenticating.
package connect
