// Package commands defines the peopledir CLI.
//
// Commands
//
//   - fetch     Fetch one directory page with live presence and print it
//   - serve     Serve the directory over HTTP
//   - module    Run as a compute module, answering one fetch per job
//   - version   Print the version
//
// # Configuration
//
// The root command loads defaults, the optional PEOPLEDIR_CONFIG YAML file and
// environment overrides before any subcommand runs. Subcommand flags are applied
// last. Configuration errors exit with status 2; a failed directory fetch or any
// other runtime error exits with status 1.
package commands
