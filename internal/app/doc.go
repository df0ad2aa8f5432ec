// Package app wires the vcfo server together: configuration, logging,
// OpenTelemetry, the record store, the websocket hub, the services and the
// HTTP router.
//
// # Initialization Flow
//
//	1. Load configuration from environment and the optional YAML file
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Create the record store selected by ingest.store_backend
//	4. Create the websocket hub and the ingest, dashboard, export and
//	   health services
//	5. Build the chi router and the HTTP server
//
// # Routes
//
//	/ws/owners/{ownerID}      realtime record events for one owner
//	/api/health...            health, readiness, liveness, version
//	/api/owners               owners with stored records
//	/api/preview              parse and aggregate without storing
//	/api/owners/{ownerID}/... records, dashboard, trend, insights, exports
//	/metrics                  Prometheus scrape and hub statistics
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then drains the HTTP server, closes
// websocket clients and flushes telemetry. The package never calls
// os.Exit.
package app
