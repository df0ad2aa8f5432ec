// Package files locates and checks financial exports on disk for the
// ingest command.
//
// Discovery lists the CSV and XLSX exports in a directory. Validator
// rejects inputs that are missing, empty, oversized or of another type,
// and checks that an export directory is writable, before any parsing
// starts.
//
//	discovery := files.NewDiscovery("")
//	exports, err := discovery.FindExports("exports/2024")
//
//	validator := files.NewValidator(10<<20, logger)
//	for _, path := range files.Paths(exports) {
//	    if err := validator.ValidateInput(path); err != nil {
//	        return err
//	    }
//	}
package files
