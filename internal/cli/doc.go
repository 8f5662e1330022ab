// Package cli implements the lineagekit subcommands.
//
// Command constructors take an env function and an output function so the
// root command decides how configuration is loaded and where output goes:
//
//	lineagekit [--config FILE] [--json] <command> [flags]
//
// Commands:
//
//	apps      List the apps catalog
//	builds    Show the default-branch builds of an app
//	devices   List devices or show one device
//	compare   Compare two LineageOS versions
//	blog      List blog posts or print one
//	status    Show the server status dashboard
//	browse    Browse apps and builds interactively
//	watch     Refresh catalogs and builds on a schedule and serve metrics
//	config    Show or create the configuration file
package cli
