// Package foresight provides the domain model of a small forecasting client:
// a signed-in user inspects a mock portfolio and asks a remote analysis service
// for a price forecast of a ticker.
//
// The package holds:
//   - Credential Gate: a fixed table of identities and secrets, see Credentials.
//   - Portfolio Catalog: the static holdings of each identity, see Catalog.
//   - Analysis model: AnalysisRequest, AnalysisResult and SeriesPoint exchanged
//     with the remote service, and DerivedMetrics, their render-ready form.
//
// The remote client lives in the analysis package, the session state machine
// in the session package, and the `fcs` command-line tool is built from the cmd
// package.
package foresight
