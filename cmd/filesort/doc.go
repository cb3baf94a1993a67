// Command filesort sorts the files of a source directory into an organized
// destination tree and answers prefix and locate queries over the result.
//
// Subcommands:
//
//	organize   move files into per-extension folders and captioned image folders
//	search     autocomplete filenames from the latest (or a given) run
//	locate     report where a filename now lives
//	browse     interactive search, locate and re-organize
//	runs       list persisted organize runs
//	config     create or validate the configuration file
//
// Runs are persisted to a SQLite catalog under paths.data_dir so search and
// locate work across invocations.
package main
