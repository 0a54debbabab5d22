// Package encompass defines the public types of the Encompass API client.
//
// A client is created with the connect package:
//
//	client, err := connect.New(ctx, &encompass.Config{
//		ClientID:   "client-id",
//		APISecret:  "api-secret",
//		InstanceID: "BE11111111",
//		Username:   "admin",
//		Password:   "secret",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	guid, err := client.Loans().GUIDByLoanNumber(ctx, "2401000123")
//
// Every call sends "Authorization: Bearer <token>". The token is fetched on
// first use when username and password are configured. When the API answers
// 401 such a client drops its token, fetches a new one and retries the call
// exactly once. A client built only from a token returns the 401 as an
// *AuthError instead.
//
// Errors are typed: *AuthError for authentication failures, *HTTPError for
// any other 4xx or 5xx response and *MilestoneNotFoundError or ErrLoanNotFound
// for failed lookups. Transport errors are returned wrapped, unchanged.
package encompass
